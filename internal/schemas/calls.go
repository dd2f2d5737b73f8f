package schemas

import (
	"github.com/pion/webrtc/v4"
)

// SignalKind is the type of call-setup metadata being relayed.
type SignalKind string

const (
	SignalOffer     SignalKind = "offer"
	SignalAnswer    SignalKind = "answer"
	SignalCandidate SignalKind = "candidate"
)

// RTCOfferRequest carries the caller's offer for one peer in the call group.
type RTCOfferRequest struct {
	To    string                    `json:"to"`
	Offer webrtc.SessionDescription `json:"offer"`
}

// RTCAnswerRequest carries the answer back to the peer that sent the offer.
type RTCAnswerRequest struct {
	To     string                    `json:"to"`
	Answer webrtc.SessionDescription `json:"answer"`
}

// RTCCandidateRequest carries one trickled ICE candidate.
type RTCCandidateRequest struct {
	To        string                  `json:"to"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

// RTCJoinRequest joins the caller's session to a channel call group.
type RTCJoinRequest struct {
	ChannelID string `json:"channelId"`
}

// RTCLeaveRequest removes the caller's session from a channel call group.
type RTCLeaveRequest struct {
	ChannelID string `json:"channelId"`
}

// RTCSignal is the ephemeral payload pushed to the target session. It is never persisted.
type RTCSignal struct {
	From      string                     `json:"from"`
	Kind      SignalKind                 `json:"kind"`
	Offer     *webrtc.SessionDescription `json:"offer,omitempty"`
	Answer    *webrtc.SessionDescription `json:"answer,omitempty"`
	Candidate *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
}

// RTCPeerEvent announces a session entering or leaving a call group.
type RTCPeerEvent struct {
	From      string `json:"from"`
	ChannelID string `json:"channelId"`
}
