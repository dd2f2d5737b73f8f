// package public contains structs that can be sent to RiceCall clients.
// These structs do not contain private information such as password hashes.
// Results returned by services are built from these views.
package public

import "github.com/mcg25035/RiceCall-sub002/internal/schemas"

// Channel is the client view of a channel.
type Channel struct {
	ChannelID   string `json:"channelId"`
	ServerID    string `json:"serverId"`
	Name        string `json:"name"`
	Visibility  string `json:"visibility"`
	HasPassword bool   `json:"hasPassword"`
	UserLimit   int    `json:"userLimit"`
	IsLobby     bool   `json:"isLobby"`
	Order       int    `json:"order"`
	CreatedAt   int64  `json:"createdAt"`
}

// NewChannel hides the password hash of c.
func NewChannel(c schemas.Channel) Channel {
	return Channel{
		ChannelID:   c.ChannelID,
		ServerID:    c.ServerID,
		Name:        c.Name,
		Visibility:  c.Visibility,
		HasPassword: c.Password != "",
		UserLimit:   c.UserLimit,
		IsLobby:     c.IsLobby,
		Order:       c.Order,
		CreatedAt:   c.CreatedAt,
	}
}

// NewChannels maps NewChannel over cs.
func NewChannels(cs []schemas.Channel) []Channel {
	out := make([]Channel, 0, len(cs))
	for _, c := range cs {
		out = append(out, NewChannel(c))
	}
	return out
}

// FriendAdded is returned by CreateFriend: both directions of the new friendship.
type FriendAdded struct {
	UserFriendAdd   schemas.Friend `json:"userFriendAdd"`
	TargetFriendAdd schemas.Friend `json:"targetFriendAdd"`
}

// FriendRemoved is returned by DeleteFriend.
type FriendRemoved struct {
	UserID   string `json:"userId"`
	TargetID string `json:"targetId"`
}

// FriendGroupRemoved is returned by DeleteFriendGroup.
type FriendGroupRemoved struct {
	UserID        string `json:"userId"`
	FriendGroupID string `json:"friendGroupId"`
}

// FriendApplicationRemoved is returned by DeleteFriendApplication.
type FriendApplicationRemoved struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}

// MemberApplicationRemoved is returned by DeleteMemberApplication.
type MemberApplicationRemoved struct {
	UserID   string `json:"userId"`
	ServerID string `json:"serverId"`
}

// ChannelRemoved is returned by DeleteChannel.
type ChannelRemoved struct {
	ServerID  string `json:"serverId"`
	ChannelID string `json:"channelId"`
	LobbyID   string `json:"lobbyId"`
	// users moved to the lobby because they were inside the removed channel
	MovedUserIDs []string `json:"movedUserIds"`
}

// ChannelPresence reports where a user is after connect/disconnect.
type ChannelPresence struct {
	UserID        string  `json:"userId"`
	ServerID      string  `json:"serverId"`
	ChannelID     *string `json:"channelId"`
	PrevChannelID *string `json:"prevChannelId"`
}

// ServerJoined is returned by ConnectServer.
type ServerJoined struct {
	UserID   string         `json:"userId"`
	Server   schemas.Server `json:"server"`
	Member   schemas.Member `json:"member"`
	Channels []Channel      `json:"channels"`
	LobbyID  string         `json:"lobbyId"`

	// where the user was before, so the transport can leave the old rooms
	PrevServerID  *string `json:"prevServerId"`
	PrevChannelID *string `json:"prevChannelId"`
}

// ServerLeft is returned by DisconnectServer.
type ServerLeft struct {
	UserID        string  `json:"userId"`
	ServerID      string  `json:"serverId"`
	PrevChannelID *string `json:"prevChannelId"`
}

// Status is everything a freshly connected client needs about itself.
type Status struct {
	User                       schemas.User                `json:"user"`
	Friends                    []schemas.Friend            `json:"friends"`
	FriendGroups               []schemas.FriendGroup       `json:"friendGroups"`
	FriendApplicationsSent     []schemas.FriendApplication `json:"friendApplicationsSent"`
	FriendApplicationsReceived []schemas.FriendApplication `json:"friendApplicationsReceived"`
	Members                    []schemas.Member            `json:"members"`
}
