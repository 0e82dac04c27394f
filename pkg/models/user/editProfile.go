package user

// UpdateRequest is the PATCH v1/profile body. Nil fields are left unchanged
// by the server.
type UpdateRequest struct {
	FirstName  *string `json:"firstName,omitempty"`
	LastName   *string `json:"lastName,omitempty"`
	Username   *string `json:"username,omitempty"`
	Bio        *string `json:"bio,omitempty"`
	WebsiteURL *string `json:"websiteUrl,omitempty"`
	Avatar     *string `json:"avatar,omitempty"`
	Cover      *string `json:"cover,omitempty"`
}

func (r UpdateRequest) IsEmpty() bool {
	return r.FirstName == nil && r.LastName == nil && r.Username == nil &&
		r.Bio == nil && r.WebsiteURL == nil && r.Avatar == nil && r.Cover == nil
}

// Validate checks only the fields being changed.
func (r UpdateRequest) Validate() error {
	if r.Username != nil {
		if err := ValidateUsername(*r.Username); err != nil {
			return err
		}
	}
	if (r.FirstName != nil && *r.FirstName == "") || (r.LastName != nil && *r.LastName == "") {
		return ErrNameRequired
	}
	return nil
}

// Diff builds the request that turns current into the edited values, leaving
// untouched fields nil.
func Diff(current User, firstName, lastName, username, bio, website string) UpdateRequest {
	var req UpdateRequest
	if firstName != current.FirstName {
		req.FirstName = &firstName
	}
	if lastName != current.LastName {
		req.LastName = &lastName
	}
	if username != current.Username {
		req.Username = &username
	}
	if bio != deref(current.Bio) {
		req.Bio = &bio
	}
	if website != deref(current.WebsiteURL) {
		req.WebsiteURL = &website
	}
	return req
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
