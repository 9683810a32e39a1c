package domain

// User 管理员账号（对应 users 集合）
// 只保存密码哈希，不保存明文
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

// SessionUser is the persisted session slot: a User without credentials.
type SessionUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session strips the credential from u.
func (u User) Session() SessionUser {
	return SessionUser{ID: u.ID, Name: u.Name, Email: u.Email}
}
