package schemas

// Typed command payloads. Each one is decoded only after the raw payload passed the
// strict schema check in package validation, so every field here is already known to
// have the right type and range. Pointer fields are optional.

type FriendPreset struct {
	IsBlocked     *bool   `json:"isBlocked,omitempty"`
	FriendGroupID *string `json:"friendGroupId,omitempty"`
}

type CreateFriendRequest struct {
	UserID   string       `json:"userId"`
	TargetID string       `json:"targetId"`
	Friend   FriendPreset `json:"friend"`
}

type UpdateFriendRequest struct {
	UserID   string       `json:"userId"`
	TargetID string       `json:"targetId"`
	Friend   FriendPreset `json:"friend"`
}

type DeleteFriendRequest struct {
	UserID   string `json:"userId"`
	TargetID string `json:"targetId"`
}

type FriendGroupPreset struct {
	Name  *string `json:"name,omitempty"`
	Order *int    `json:"order,omitempty"`
}

type CreateFriendGroupRequest struct {
	UserID string            `json:"userId"`
	Group  FriendGroupPreset `json:"group"`
}

type UpdateFriendGroupRequest struct {
	UserID        string            `json:"userId"`
	FriendGroupID string            `json:"friendGroupId"`
	Group         FriendGroupPreset `json:"group"`
}

type DeleteFriendGroupRequest struct {
	UserID        string `json:"userId"`
	FriendGroupID string `json:"friendGroupId"`
}

type FriendApplicationPreset struct {
	Description *string `json:"description,omitempty"`
}

type CreateFriendApplicationRequest struct {
	SenderID          string                  `json:"senderId"`
	ReceiverID        string                  `json:"receiverId"`
	FriendApplication FriendApplicationPreset `json:"friendApplication"`
}

type UpdateFriendApplicationRequest struct {
	SenderID          string                  `json:"senderId"`
	ReceiverID        string                  `json:"receiverId"`
	FriendApplication FriendApplicationPreset `json:"friendApplication"`
}

type DeleteFriendApplicationRequest struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}

type MemberApplicationPreset struct {
	Description *string `json:"description,omitempty"`
}

type CreateMemberApplicationRequest struct {
	UserID            string                  `json:"userId"`
	ServerID          string                  `json:"serverId"`
	MemberApplication MemberApplicationPreset `json:"memberApplication"`
}

type UpdateMemberApplicationRequest struct {
	UserID            string                  `json:"userId"`
	ServerID          string                  `json:"serverId"`
	MemberApplication MemberApplicationPreset `json:"memberApplication"`
}

type DeleteMemberApplicationRequest struct {
	UserID   string `json:"userId"`
	ServerID string `json:"serverId"`
}

type ChannelPreset struct {
	Name       *string `json:"name,omitempty"`
	Visibility *string `json:"visibility,omitempty"`
	// plaintext on the wire, hashed before it is stored; "" removes protection
	Password  *string `json:"password,omitempty"`
	UserLimit *int    `json:"userLimit,omitempty"`
	Order     *int    `json:"order,omitempty"`
}

type CreateChannelRequest struct {
	ServerID string        `json:"serverId"`
	Channel  ChannelPreset `json:"channel"`
}

type UpdateChannelRequest struct {
	ServerID  string        `json:"serverId"`
	ChannelID string        `json:"channelId"`
	Channel   ChannelPreset `json:"channel"`
}

// ChannelUpdate is one entry of a batch update.
type ChannelUpdate struct {
	ChannelID string `json:"channelId"`
	ChannelPreset
}

type UpdateChannelsRequest struct {
	ServerID string          `json:"serverId"`
	Channels []ChannelUpdate `json:"channels"`
}

type DeleteChannelRequest struct {
	ServerID  string `json:"serverId"`
	ChannelID string `json:"channelId"`
}

type ConnectChannelRequest struct {
	UserID    string  `json:"userId"`
	ChannelID string  `json:"channelId"`
	ServerID  string  `json:"serverId"`
	Password  *string `json:"password,omitempty"`
}

type DisconnectChannelRequest struct {
	UserID    string `json:"userId"`
	ChannelID string `json:"channelId"`
	ServerID  string `json:"serverId"`
}

type MessagePreset struct {
	Content string `json:"content"`
}

type SendMessageRequest struct {
	UserID    string        `json:"userId"`
	ServerID  string        `json:"serverId"`
	ChannelID string        `json:"channelId"`
	Message   MessagePreset `json:"message"`
}

type SendDirectMessageRequest struct {
	UserID        string        `json:"userId"`
	TargetID      string        `json:"targetId"`
	DirectMessage MessagePreset `json:"directMessage"`
}

type ConnectServerRequest struct {
	UserID   string `json:"userId"`
	ServerID string `json:"serverId"`
}

type DisconnectServerRequest struct {
	UserID   string `json:"userId"`
	ServerID string `json:"serverId"`
}

type SearchServerRequest struct {
	Query string `json:"query"`
}

type SearchUserRequest struct {
	Query string `json:"query"`
}

type UserPreset struct {
	Name      *string `json:"name,omitempty"`
	Signature *string `json:"signature,omitempty"`
	Status    *string `json:"status,omitempty"`
	Gender    *string `json:"gender,omitempty"`
}

type UpdateUserRequest struct {
	UserID string     `json:"userId"`
	User   UserPreset `json:"user"`
}
