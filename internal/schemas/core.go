package schemas

// Permission levels stored on Member records.
const (
	PermissionGuest     = 1
	PermissionMember    = 2
	PermissionModerator = 5
	PermissionOwner     = 6
	PermissionMax       = 8
)

// Server visibilities and types.
const (
	ServerPublic    = "public"
	ServerPrivate   = "private"
	ServerInvisible = "invisible"

	ServerGame          = "game"
	ServerEntertainment = "entertainment"
	ServerOther         = "other"
)

// Channel visibilities.
const (
	ChannelPublic   = "public"
	ChannelPrivate  = "private"
	ChannelReadonly = "readonly"
)

// User stores the identity and presence pointers of a RiceCall user.
type User struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Signature string `json:"signature"`
	Status    string `json:"status"`
	Gender    string `json:"gender"`

	// nil when the user is not inside a server / channel
	CurrentServerID  *string `json:"currentServerId"`
	CurrentChannelID *string `json:"currentChannelId"`

	CreatedAt int64 `json:"createdAt"`
}

// Server is a community that owns channels and members.
type Server struct {
	ServerID    string `json:"serverId"`
	DisplayID   string `json:"displayId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Visibility  string `json:"visibility"`
	Type        string `json:"type"`
	LobbyID     string `json:"lobbyId"`
	OwnerID     string `json:"ownerId"`
	CreatedAt   int64  `json:"createdAt"`
}

// Channel belongs to exactly one server.
type Channel struct {
	ChannelID  string `json:"channelId"`
	ServerID   string `json:"serverId"`
	Name       string `json:"name"`
	Visibility string `json:"visibility"`

	// bcrypt hash, empty when the channel is not protected
	Password string `json:"password"`

	// 0 means unlimited
	UserLimit int   `json:"userLimit"`
	IsLobby   bool  `json:"isLobby"`
	Order     int   `json:"order"`
	CreatedAt int64 `json:"createdAt"`
}

// Member is a user's standing within a server.
type Member struct {
	UserID          string `json:"userId"`
	ServerID        string `json:"serverId"`
	PermissionLevel int    `json:"permissionLevel"`
	Nickname        string `json:"nickname"`
	IsBlocked       bool   `json:"isBlocked"`
	CreatedAt       int64  `json:"createdAt"`
}

// MemberApplication is a pending request to become a member of a server.
type MemberApplication struct {
	UserID      string `json:"userId"`
	ServerID    string `json:"serverId"`
	Description string `json:"description"`
	CreatedAt   int64  `json:"createdAt"`
}

// Friend is one direction of a mutual friendship. Its mirror (TargetID -> UserID)
// always exists alongside it.
type Friend struct {
	UserID        string `json:"userId"`
	TargetID      string `json:"targetId"`
	IsBlocked     bool   `json:"isBlocked"`
	FriendGroupID string `json:"friendGroupId"`
	CreatedAt     int64  `json:"createdAt"`
}

// FriendApplication is a directed friend request.
type FriendApplication struct {
	SenderID    string `json:"senderId"`
	ReceiverID  string `json:"receiverId"`
	Description string `json:"description"`
	CreatedAt   int64  `json:"createdAt"`
}

// FriendGroup organizes the owner's friend list.
type FriendGroup struct {
	FriendGroupID string `json:"friendGroupId"`
	UserID        string `json:"userId"`
	Name          string `json:"name"`
	Order         int    `json:"order"`
	CreatedAt     int64  `json:"createdAt"`
}

// Message is a channel text message.
type Message struct {
	MessageID string `json:"messageId"`
	ServerID  string `json:"serverId"`
	ChannelID string `json:"channelId"`
	SenderID  string `json:"senderId"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt"`
}

// DirectMessage is a message between two friends.
type DirectMessage struct {
	MessageID string `json:"messageId"`
	SenderID  string `json:"senderId"`
	TargetID  string `json:"targetId"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt"`
}
