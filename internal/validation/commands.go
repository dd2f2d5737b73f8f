package validation

import (
	"regexp"

	"github.com/mcg25035/RiceCall-sub002/internal/schemas"
)

var validID = regexp.MustCompile(`^[A-Za-z\d_\-]+$`)

const maxIDLen = 64

// IsID reports whether s is usable as an entity id.
func IsID(s string) bool {
	return len(s) <= maxIDLen && validID.MatchString(s)
}

func id() Field {
	return String().MinLen(1).MaxLen(maxIDLen).Pattern(validID)
}

var (
	friendFields = Shape{
		"isBlocked":     Boolean().Optional(),
		"friendGroupId": id().Nullable().Optional(),
	}
	friendGroupName  = String().MinLen(1).MaxLen(32)
	friendGroupOrder = Integer().Min(0).Max(9999)
	description      = String().MaxLen(200)

	channelName       = String().MinLen(1).MaxLen(32)
	channelVisibility = String().Enum(schemas.ChannelPublic, schemas.ChannelPrivate, schemas.ChannelReadonly)
	channelPassword   = String().MaxLen(32)
	channelUserLimit  = Integer().Min(0).Max(999)
	channelOrder      = Integer().Min(0).Max(9999)

	messageContent = Object(Shape{"content": String().MinLen(1).MaxLen(2000)})
	searchQuery    = String().MaxLen(64)

	sessionDescription = func(types ...string) Field {
		return Object(Shape{
			"type": String().Enum(types...),
			"sdp":  String().MinLen(1),
		})
	}
)

func channelPreset(nameRequired bool) Shape {
	name := channelName
	if !nameRequired {
		name = name.Optional()
	}
	return Shape{
		"name":       name,
		"visibility": channelVisibility.Optional(),
		"password":   channelPassword.Optional(),
		"userLimit":  channelUserLimit.Optional(),
		"order":      channelOrder.Optional(),
	}
}

// Relationship commands.
var (
	CreateFriendSchema = Schema{"CreateFriendSchema", Shape{
		"userId":   id(),
		"targetId": id(),
		"friend":   Object(friendFields).Optional(),
	}}
	UpdateFriendSchema = Schema{"UpdateFriendSchema", Shape{
		"userId":   id(),
		"targetId": id(),
		"friend":   Object(friendFields),
	}}
	DeleteFriendSchema = Schema{"DeleteFriendSchema", Shape{
		"userId":   id(),
		"targetId": id(),
	}}

	CreateFriendGroupSchema = Schema{"CreateFriendGroupSchema", Shape{
		"userId": id(),
		"group": Object(Shape{
			"name":  friendGroupName,
			"order": friendGroupOrder.Optional(),
		}),
	}}
	UpdateFriendGroupSchema = Schema{"UpdateFriendGroupSchema", Shape{
		"userId":        id(),
		"friendGroupId": id(),
		"group": Object(Shape{
			"name":  friendGroupName.Optional(),
			"order": friendGroupOrder.Optional(),
		}),
	}}
	DeleteFriendGroupSchema = Schema{"DeleteFriendGroupSchema", Shape{
		"userId":        id(),
		"friendGroupId": id(),
	}}

	CreateFriendApplicationSchema = Schema{"CreateFriendApplicationSchema", Shape{
		"senderId":          id(),
		"receiverId":        id(),
		"friendApplication": Object(Shape{"description": description.Optional()}).Optional(),
	}}
	UpdateFriendApplicationSchema = Schema{"UpdateFriendApplicationSchema", Shape{
		"senderId":          id(),
		"receiverId":        id(),
		"friendApplication": Object(Shape{"description": description.Optional()}),
	}}
	DeleteFriendApplicationSchema = Schema{"DeleteFriendApplicationSchema", Shape{
		"senderId":   id(),
		"receiverId": id(),
	}}
)

// Membership commands.
var (
	CreateMemberApplicationSchema = Schema{"CreateMemberApplicationSchema", Shape{
		"userId":            id(),
		"serverId":          id(),
		"memberApplication": Object(Shape{"description": description.Optional()}).Optional(),
	}}
	UpdateMemberApplicationSchema = Schema{"UpdateMemberApplicationSchema", Shape{
		"userId":            id(),
		"serverId":          id(),
		"memberApplication": Object(Shape{"description": description.Optional()}),
	}}
	DeleteMemberApplicationSchema = Schema{"DeleteMemberApplicationSchema", Shape{
		"userId":   id(),
		"serverId": id(),
	}}
)

// Channel commands.
var (
	CreateChannelSchema = Schema{"CreateChannelSchema", Shape{
		"serverId": id(),
		"channel":  Object(channelPreset(true)),
	}}
	UpdateChannelSchema = Schema{"UpdateChannelSchema", Shape{
		"serverId":  id(),
		"channelId": id(),
		"channel":   Object(channelPreset(false)),
	}}
	UpdateChannelsSchema = Schema{"UpdateChannelsSchema", Shape{
		"serverId": id(),
		"channels": Array(Object(withChannelID(channelPreset(false)))).MinLen(1).MaxLen(100),
	}}
	DeleteChannelSchema = Schema{"DeleteChannelSchema", Shape{
		"serverId":  id(),
		"channelId": id(),
	}}
	ConnectChannelSchema = Schema{"ConnectChannelSchema", Shape{
		"userId":    id(),
		"channelId": id(),
		"serverId":  id(),
		"password":  channelPassword.Optional(),
	}}
	DisconnectChannelSchema = Schema{"DisconnectChannelSchema", Shape{
		"userId":    id(),
		"channelId": id(),
		"serverId":  id(),
	}}
)

func withChannelID(s Shape) Shape {
	s["channelId"] = id()
	return s
}

// Messaging commands.
var (
	SendMessageSchema = Schema{"SendMessageSchema", Shape{
		"userId":    id(),
		"serverId":  id(),
		"channelId": id(),
		"message":   messageContent,
	}}
	SendDirectMessageSchema = Schema{"SendDirectMessageSchema", Shape{
		"userId":        id(),
		"targetId":      id(),
		"directMessage": messageContent,
	}}
)

// Server presence and user commands.
var (
	ConnectServerSchema = Schema{"ConnectServerSchema", Shape{
		"userId":   id(),
		"serverId": id(),
	}}
	DisconnectServerSchema = Schema{"DisconnectServerSchema", Shape{
		"userId":   id(),
		"serverId": id(),
	}}
	SearchServerSchema = Schema{"SearchServerSchema", Shape{
		"query": searchQuery,
	}}
	SearchUserSchema = Schema{"SearchUserSchema", Shape{
		"query": searchQuery,
	}}
	UpdateUserSchema = Schema{"UpdateUserSchema", Shape{
		"userId": id(),
		"user": Object(Shape{
			"name":      String().MinLen(1).MaxLen(32).Optional(),
			"signature": String().MaxLen(200).Optional(),
			"status":    String().Enum("online", "dnd", "idle", "gn").Optional(),
			"gender":    String().Enum("Male", "Female").Optional(),
		}),
	}}
)

// Signaling commands. The session description and candidate bodies are relayed as is
// once their envelope is known to be well formed.
var (
	RTCOfferSchema = Schema{"RTCOfferSchema", Shape{
		"to":    id(),
		"offer": sessionDescription("offer"),
	}}
	RTCAnswerSchema = Schema{"RTCAnswerSchema", Shape{
		"to":     id(),
		"answer": sessionDescription("answer", "pranswer"),
	}}
	RTCCandidateSchema = Schema{"RTCCandidateSchema", Shape{
		"to": id(),
		"candidate": Object(Shape{
			"candidate":        String(),
			"sdpMid":           String().Nullable().Optional(),
			"sdpMLineIndex":    Integer().Min(0).Max(65535).Nullable().Optional(),
			"usernameFragment": String().Nullable().Optional(),
		}),
	}}
	RTCJoinSchema = Schema{"RTCJoinSchema", Shape{
		"channelId": id(),
	}}
	RTCLeaveSchema = Schema{"RTCLeaveSchema", Shape{
		"channelId": id(),
	}}
)
