package logs

import "time"

// Entry is a single pushup set logged by a user.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"createdAt"`
}

// Day returns the local calendar day of the entry in YYYY-MM-DD format.
func (e Entry) Day() string {
	return e.CreatedAt.Local().Format("2006-01-02")
}
