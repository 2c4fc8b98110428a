package domain

import "time"

// User mirrors the identity subsystem: the job board needs the email for
// notifications and the staff flag for review rights.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"size:254;not null;uniqueIndex"`
	IsStaff   bool   `gorm:"not null;default:false"`
	TokenHash string `gorm:"size:64;not null;uniqueIndex"`
	CreatedAt time.Time
}

// Actor is who performs an operation. It is passed explicitly to every
// service call instead of being read from request state.
type Actor struct {
	UserID          uint
	Email           string
	IsAuthenticated bool
	IsStaff         bool
}

// Anonymous is the actor for requests without credentials.
func Anonymous() Actor {
	return Actor{}
}

// ActorFor builds an authenticated actor from u.
func ActorFor(u *User) Actor {
	return Actor{UserID: u.ID, Email: u.Email, IsAuthenticated: true, IsStaff: u.IsStaff}
}

// Owns reports whether the actor is the user with the given id.
func (a Actor) Owns(userID uint) bool {
	return a.IsAuthenticated && a.UserID != 0 && a.UserID == userID
}

// CanManage reports whether the actor may modify a record owned by userID.
func (a Actor) CanManage(userID uint) bool {
	return a.IsAuthenticated && (a.IsStaff || a.Owns(userID))
}
