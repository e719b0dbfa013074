package models

// FollowerRecord is the input entity for one evaluation. Username is the
// unique key within a batch; the remaining fields are opportunistic profile
// data the evaluators may use. Records are immutable during evaluation.
type FollowerRecord struct {
	Username   string            `json:"username"`
	Bio        string            `json:"bio,omitempty"`
	ProfilePic string            `json:"profile_pic,omitempty"`
	Following  []string          `json:"following,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Valid reports whether the record carries its required fields.
func (f *FollowerRecord) Valid() bool {
	return f != nil && f.Username != ""
}
