package dto

type StatusRequest struct {
	Status string `json:"status"`
}

func (r *StatusRequest) Validate() []ValidationError {
	return validateStatus(r.Status)
}

// ReadRequest reports how many images of the chapter were viewed. A
// missing body counts as zero.
type ReadRequest struct {
	Images int `json:"images"`
}

func (r *ReadRequest) Validate() []ValidationError {
	return validateImages(r.Images)
}

type PasswordRequest struct {
	Password string `json:"password"`
}

func (r *PasswordRequest) Validate() []ValidationError {
	return validatePassword(r.Password)
}

// ChangePasswordRequest replaces the safe mode password. Current must
// match the stored one.
type ChangePasswordRequest struct {
	Current  string `json:"current"`
	Password string `json:"password"`
}

func (r *ChangePasswordRequest) Validate() []ValidationError {
	var errs []ValidationError
	if r.Current == "" {
		errs = append(errs, ValidationError{Field: "current", Message: "is required"})
	}
	return append(errs, validatePassword(r.Password)...)
}

type ResetRequest struct {
	IncludePrivate bool `json:"include_private"`
}
