package models

// User is the locally signed-in profile
type User struct {
	ID                string   `json:"id"`
	Username          string   `json:"username"`
	Email             string   `json:"email"`
	FavoriteArtworks  []string `json:"favoriteArtworks"`
	SubmittedArtworks []string `json:"submittedArtworks"`
}

// Clone returns a copy that shares no slices with the receiver
func (u User) Clone() User {
	u.FavoriteArtworks = append([]string{}, u.FavoriteArtworks...)
	u.SubmittedArtworks = append([]string{}, u.SubmittedArtworks...)
	return u
}

// AuthState is what the identity service persists under the auth key
type AuthState struct {
	User            *User `json:"user"`
	IsAuthenticated bool  `json:"isAuthenticated"`
}

// UserUpdate is a partial profile update; nil fields are kept
type UserUpdate struct {
	Username          *string   `json:"username,omitempty"`
	Email             *string   `json:"email,omitempty"`
	FavoriteArtworks  *[]string `json:"favoriteArtworks,omitempty"`
	SubmittedArtworks *[]string `json:"submittedArtworks,omitempty"`
}

// Apply merges the update into u
func (up UserUpdate) Apply(u *User) {
	if up.Username != nil {
		u.Username = *up.Username
	}
	if up.Email != nil {
		u.Email = *up.Email
	}
	if up.FavoriteArtworks != nil {
		u.FavoriteArtworks = append([]string{}, (*up.FavoriteArtworks)...)
	}
	if up.SubmittedArtworks != nil {
		u.SubmittedArtworks = append([]string{}, (*up.SubmittedArtworks)...)
	}
}
