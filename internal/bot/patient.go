package bot

import (
	"sync"

	"shifa/internal/models"
)

// patientForms accumulates the patient-info answers per chat while the
// wizard walks through its text prompts.
type patientForms struct {
	mu sync.Mutex
	m  map[int64]*models.PatientForm
}

func newPatientForms() *patientForms {
	return &patientForms{m: make(map[int64]*models.PatientForm)}
}

func (p *patientForms) edit(chatID int64, fn func(*models.PatientForm)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	form := p.m[chatID]
	if form == nil {
		form = &models.PatientForm{}
		p.m[chatID] = form
	}
	fn(form)
}

func (p *patientForms) setName(chatID int64, v string) {
	p.edit(chatID, func(f *models.PatientForm) { f.Name = v })
}

func (p *patientForms) setPhone(chatID int64, v string) {
	p.edit(chatID, func(f *models.PatientForm) { f.Phone = v })
}

func (p *patientForms) setNationalID(chatID int64, v string) {
	p.edit(chatID, func(f *models.PatientForm) { f.NationalID = v })
}

func (p *patientForms) setReason(chatID int64, v string) {
	p.edit(chatID, func(f *models.PatientForm) { f.ReasonForVisit = v })
}

func (p *patientForms) form(chatID int64) models.PatientForm {
	p.mu.Lock()
	defer p.mu.Unlock()
	if form := p.m[chatID]; form != nil {
		return *form
	}
	return models.PatientForm{}
}

func (p *patientForms) reset(chatID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.m, chatID)
}
