package bot

import "sync"

type inputStep string

const (
	stepNone          inputStep = "none"
	stepPatientName   inputStep = "patient_name"
	stepPatientPhone  inputStep = "patient_phone"
	stepNationalID    inputStep = "national_id"
	stepReason        inputStep = "reason"
	stepLoginPhone    inputStep = "login_phone"
	stepLoginPassword inputStep = "login_password"
	stepRegName       inputStep = "register_name"
	stepRegPhone      inputStep = "register_phone"
	stepRegEmail      inputStep = "register_email"
	stepRegPassword   inputStep = "register_password"
	stepCoupon        inputStep = "coupon"
	stepBaseURL       inputStep = "base_url"
)

type chatInput struct {
	Step       inputStep
	LoginPhone string
	RegName    string
	RegPhone   string
	RegEmail   string
}

// inputStore tracks which free-text prompt each chat is answering.
// Structured choices travel through callbacks; only form fields need this.
type inputStore struct {
	mu sync.Mutex
	m  map[int64]*chatInput
}

func newInputStore() *inputStore {
	return &inputStore{m: make(map[int64]*chatInput)}
}

func (s *inputStore) get(chatID int64) *chatInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	in := s.m[chatID]
	if in == nil {
		in = &chatInput{Step: stepNone}
		s.m[chatID] = in
	}
	return in
}

func (s *inputStore) set(chatID int64, step inputStep) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in := s.m[chatID]
	if in == nil {
		in = &chatInput{}
		s.m[chatID] = in
	}
	in.Step = step
}

func (s *inputStore) reset(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, chatID)
}
