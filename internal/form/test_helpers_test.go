package form

import (
	"context"
	"io"
	"sync"

	"anakcore/pkg/domain"
)

// fakeRepository is an in-package repository double recording every call so
// session and coordinator behavior can be asserted without a backend.
type fakeRepository struct {
	mu sync.Mutex

	record    domain.CaseRecord
	mintID    string
	getErr    error
	createErr error
	updateErr error
	uploadErr map[string]error

	getCalls    int
	createCalls int
	updateCalls int
	uploads     []string

	lastCreate domain.Payload
	lastUpdate domain.Payload
}

var _ domain.Repository = (*fakeRepository)(nil)

func newFakeRepository() *fakeRepository {
	return &fakeRepository{mintID: "42", uploadErr: map[string]error{}}
}

func (f *fakeRepository) GetByID(_ context.Context, id string) (domain.CaseRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return domain.CaseRecord{}, f.getErr
	}
	record := f.record
	record.ID = id
	return record, nil
}

func (f *fakeRepository) Create(_ context.Context, payload domain.Payload) (domain.CaseRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.lastCreate = payload
	if f.createErr != nil {
		return domain.CaseRecord{}, f.createErr
	}
	record := f.record
	record.ID = f.mintID
	f.record = record
	return record, nil
}

func (f *fakeRepository) Update(_ context.Context, id string, payload domain.Payload) (domain.CaseRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	f.lastUpdate = payload
	if f.updateErr != nil {
		return domain.CaseRecord{}, f.updateErr
	}
	record := f.record
	record.ID = id
	return record, nil
}

func (f *fakeRepository) UploadAttachment(_ context.Context, _, field, filename string, r io.Reader) (domain.StoredAttachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r != nil {
		_, _ = io.ReadAll(r)
	}
	if err := f.uploadErr[field]; err != nil {
		return domain.StoredAttachment{}, err
	}
	f.uploads = append(f.uploads, field)
	return domain.StoredAttachment{Field: field, StoredName: "stored-" + filename}, nil
}
