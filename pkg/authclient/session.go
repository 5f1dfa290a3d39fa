package authclient

// Phase is where a client session sits in its lifecycle:
// anonymous -> authenticated -> renewing -> authenticated | anonymous.
type Phase string

const (
	PhaseAnonymous     Phase = "anonymous"
	PhaseAuthenticated Phase = "authenticated"
	PhaseRenewing      Phase = "renewing"
)

// Profile is the cached identity of the signed-in user.
type Profile struct {
	UserID    uint   `json:"userId,omitempty"`
	Username  string `json:"username,omitempty"`
	Role      string `json:"role,omitempty"`
	RealName  string `json:"realName,omitempty"`
	StudentID string `json:"studentId,omitempty"`
	College   string `json:"college,omitempty"`
	Major     string `json:"major,omitempty"`
	Grade     string `json:"grade,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
}

// merge copies the non-empty fields of p over the receiver.
func (dst *Profile) merge(p Profile) {
	if p.UserID != 0 {
		dst.UserID = p.UserID
	}
	set := func(to *string, from string) {
		if from != "" {
			*to = from
		}
	}
	set(&dst.Username, p.Username)
	set(&dst.Role, p.Role)
	set(&dst.RealName, p.RealName)
	set(&dst.StudentID, p.StudentID)
	set(&dst.College, p.College)
	set(&dst.Major, p.Major)
	set(&dst.Grade, p.Grade)
	set(&dst.Phone, p.Phone)
	set(&dst.Avatar, p.Avatar)
}

// SessionState is the persisted client session. The zero value is anonymous.
type SessionState struct {
	Phase        Phase   `json:"phase,omitempty"`
	AccessToken  string  `json:"accessToken,omitempty"`
	RefreshToken string  `json:"refreshToken,omitempty"`
	User         Profile `json:"user"`
}

func (s *SessionState) CurrentPhase() Phase {
	if s.Phase == "" {
		return PhaseAnonymous
	}
	return s.Phase
}

func (s *SessionState) Authenticate(accessToken, refreshToken string, p Profile) {
	s.Phase = PhaseAuthenticated
	s.AccessToken = accessToken
	if refreshToken != "" {
		s.RefreshToken = refreshToken
	}
	s.User.merge(p)
}

func (s *SessionState) BeginRenew() {
	if s.CurrentPhase() == PhaseAuthenticated {
		s.Phase = PhaseRenewing
	}
}

func (s *SessionState) Renewed(accessToken string) {
	s.Phase = PhaseAuthenticated
	s.AccessToken = accessToken
}

// Clear drops every token and cached field.
func (s *SessionState) Clear() {
	*s = SessionState{}
}

// normalize repairs a state loaded from disk.
func (s *SessionState) normalize() {
	switch {
	case s.AccessToken == "" && s.RefreshToken == "":
		s.Phase = PhaseAnonymous
	case s.CurrentPhase() != PhaseAuthenticated:
		s.Phase = PhaseAuthenticated
	}
}
