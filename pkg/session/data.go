package session

import "time"

const (
	KindUser  = "user"
	KindAdmin = "admin"
)

const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Subject is the identity snapshot stored on login.
type Subject struct {
	Kind  string
	ID    int64
	Role  string
	Name  string
	Email string
}

type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Data is what a Store persists for one session id.
type Data struct {
	UserID       int64             `json:"user_id,omitempty"`
	UserName     string            `json:"user_name,omitempty"`
	UserEmail    string            `json:"user_email,omitempty"`
	AdminID      int64             `json:"admin_id,omitempty"`
	AdminName    string            `json:"admin_name,omitempty"`
	AdminRole    string            `json:"admin_role,omitempty"`
	LastActivity time.Time         `json:"last_activity"`
	CreatedAt    time.Time         `json:"created_at"`
	CSRFToken    string            `json:"csrf_token,omitempty"`
	Flashes      []Flash           `json:"flashes,omitempty"`
	Intended     string            `json:"intended,omitempty"`
	Values       map[string]string `json:"values,omitempty"`
}

func (d *Data) authenticated() bool {
	return d.UserID != 0 || d.AdminID != 0
}

func (d *Data) clearIdentity() {
	d.UserID, d.UserName, d.UserEmail = 0, "", ""
	d.AdminID, d.AdminName, d.AdminRole = 0, "", ""
}
