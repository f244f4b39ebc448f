package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/inquiry-desk/api-go/models"
	"github.com/inquiry-desk/api-go/repository"
	"github.com/inquiry-desk/api-go/storage"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// memDB is an in-memory stand-in for the database behind repository.Store.
type memDB struct {
	nextID         uint
	users          map[uint]*models.User
	requesters     map[uint]*models.Requester
	inquiries      map[uint]*models.Inquiry
	responses      map[uint]*models.Response
	attachments    map[uint]*models.Attachment
	categories     map[uint]*models.Category
	ranks          map[uint]*models.Rank
	establishments map[uint]*models.Establishment
}

func (m *memDB) id() uint {
	m.nextID++
	return m.nextID
}

func newFakeStore() (*repository.Store, *memDB) {
	m := &memDB{
		users:          map[uint]*models.User{},
		requesters:     map[uint]*models.Requester{},
		inquiries:      map[uint]*models.Inquiry{},
		responses:      map[uint]*models.Response{},
		attachments:    map[uint]*models.Attachment{},
		categories:     map[uint]*models.Category{},
		ranks:          map[uint]*models.Rank{},
		establishments: map[uint]*models.Establishment{},
	}
	store := &repository.Store{
		Users:       &fakeUsers{m},
		Requesters:  &fakeRequesters{m},
		Inquiries:   &fakeInquiries{m},
		Responses:   &fakeResponses{m},
		Attachments: &fakeAttachments{m},
		Categories: &fakeReferences[models.Category, *models.Category]{m: m, items: m.categories,
			setID: func(c *models.Category, id uint) { c.ID = id },
			dependents: func(id uint) (n int64) {
				for _, inq := range m.inquiries {
					if inq.CategoryID == id {
						n++
					}
				}
				return n
			}},
		Ranks: &fakeReferences[models.Rank, *models.Rank]{m: m, items: m.ranks,
			setID: func(r *models.Rank, id uint) { r.ID = id },
			dependents: func(id uint) (n int64) {
				for _, r := range m.requesters {
					if r.RankID != nil && *r.RankID == id {
						n++
					}
				}
				return n
			}},
		Establishments: &fakeReferences[models.Establishment, *models.Establishment]{m: m, items: m.establishments,
			setID: func(e *models.Establishment, id uint) { e.ID = id },
			dependents: func(id uint) (n int64) {
				for _, r := range m.requesters {
					if r.EstablishmentID != nil && *r.EstablishmentID == id {
						n++
					}
				}
				return n
			}},
	}
	return store, m
}

// Seeding helpers.

func (m *memDB) addUser(role models.Role, first, last string) *models.User {
	u := &models.User{ID: m.id(), FirstName: first, LastName: last, Email: strings.ToLower(first) + "@desk.lk", Role: role}
	m.users[u.ID] = u
	return u
}

func (m *memDB) addCategory(name string) *models.Category {
	c := &models.Category{ID: m.id(), Name: name}
	m.categories[c.ID] = c
	return c
}

func (m *memDB) addRank(name string) *models.Rank {
	r := &models.Rank{ID: m.id(), Name: name}
	m.ranks[r.ID] = r
	return r
}

func (m *memDB) addEstablishment(name string) *models.Establishment {
	e := &models.Establishment{ID: m.id(), Name: name, Type: models.EstablishmentMilitary}
	m.establishments[e.ID] = e
	return e
}

func (m *memDB) addRequester(r models.Requester) *models.Requester {
	r.ID = m.id()
	m.requesters[r.ID] = &r
	return &r
}

func (m *memDB) addInquiry(inq models.Inquiry) *models.Inquiry {
	inq.ID = m.id()
	if inq.Status == "" {
		inq.Status = models.StatusPending
	}
	if inq.CreatedAt.IsZero() {
		inq.CreatedAt = time.Now()
	}
	m.inquiries[inq.ID] = &inq
	return &inq
}

func (m *memDB) addResponse(inquiryID, userID uint, text string) *models.Response {
	r := &models.Response{ID: m.id(), InquiryID: inquiryID, UserID: userID, ResponseText: text, CreatedAt: time.Now()}
	m.responses[r.ID] = r
	return r
}

func (m *memDB) responsesFor(inquiryID uint) []models.Response {
	var out []models.Response
	for _, r := range m.responses {
		if r.InquiryID == inquiryID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memDB) visible(scope repository.Scope, inq *models.Inquiry) bool {
	if scope.All || inq.IsPublic {
		return true
	}
	for _, r := range m.responses {
		if r.InquiryID == inq.ID && r.UserID == scope.UserID {
			return true
		}
	}
	return false
}

type fakeUsers struct{ m *memDB }

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	for _, existing := range f.m.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = f.m.id()
	cp := *u
	f.m.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) Update(_ context.Context, u *models.User) error {
	cp := *u
	f.m.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id uint) error {
	if _, ok := f.m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.m.users, id)
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := f.m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.m.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) List(_ context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range f.m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsers) CountResponses(_ context.Context, id uint) (n int64, _ error) {
	for _, r := range f.m.responses {
		if r.UserID == id {
			n++
		}
	}
	return n, nil
}

type fakeRequesters struct{ m *memDB }

func (f *fakeRequesters) Create(_ context.Context, r *models.Requester) error {
	r.ID = f.m.id()
	cp := *r
	f.m.requesters[r.ID] = &cp
	return nil
}

func (f *fakeRequesters) Update(_ context.Context, r *models.Requester) error {
	cp := *r
	f.m.requesters[r.ID] = &cp
	return nil
}

func (f *fakeRequesters) Delete(_ context.Context, id uint) error {
	if _, ok := f.m.requesters[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.m.requesters, id)
	return nil
}

func (f *fakeRequesters) FindByID(_ context.Context, id uint) (*models.Requester, error) {
	r, ok := f.m.requesters[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRequesters) FindByIdentity(_ context.Context, regNo, nic, email *string) ([]models.Requester, error) {
	eq := func(a, b *string) bool { return a != nil && b != nil && *a != "" && *a == *b }
	var out []models.Requester
	for _, r := range f.m.requesters {
		if eq(regNo, r.OfficerRegNo) || eq(nic, r.NIC) || eq(email, r.Email) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRequesters) List(_ context.Context, scope repository.Scope, _ repository.ListOptions) ([]models.Requester, int64, error) {
	var out []models.Requester
	for _, r := range f.m.requesters {
		if ok, _ := f.IsVisible(context.Background(), scope, r.ID); ok {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeRequesters) IsVisible(_ context.Context, scope repository.Scope, id uint) (bool, error) {
	if _, ok := f.m.requesters[id]; !ok {
		return false, nil
	}
	if scope.All {
		return true, nil
	}
	for _, inq := range f.m.inquiries {
		if inq.RequesterID == id && f.m.visible(scope, inq) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRequesters) CountInquiries(_ context.Context, id uint) (n int64, _ error) {
	for _, inq := range f.m.inquiries {
		if inq.RequesterID == id {
			n++
		}
	}
	return n, nil
}

type fakeInquiries struct{ m *memDB }

func (f *fakeInquiries) Create(_ context.Context, inq *models.Inquiry) error {
	if _, ok := f.m.categories[inq.CategoryID]; !ok {
		return repository.ErrForeignKey
	}
	inq.ID = f.m.id()
	inq.CreatedAt = time.Now()
	cp := *inq
	cp.Category, cp.Requester, cp.Responses, cp.Attachments = nil, nil, nil, nil
	f.m.inquiries[inq.ID] = &cp
	return nil
}

func (f *fakeInquiries) Update(_ context.Context, inq *models.Inquiry) error {
	stored, ok := f.m.inquiries[inq.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Subject = inq.Subject
	stored.InquiryText = inq.InquiryText
	stored.CategoryID = inq.CategoryID
	stored.Status = inq.Status
	stored.IsPublic = inq.IsPublic
	return nil
}

func (f *fakeInquiries) Delete(_ context.Context, id uint) ([]string, error) {
	if _, ok := f.m.inquiries[id]; !ok {
		return nil, repository.ErrNotFound
	}
	var paths []string
	for aid, a := range f.m.attachments {
		owned := a.InquiryID != nil && *a.InquiryID == id
		if a.ResponseID != nil {
			if r, ok := f.m.responses[*a.ResponseID]; ok && r.InquiryID == id {
				owned = true
			}
		}
		if owned {
			paths = append(paths, a.FilePath)
			delete(f.m.attachments, aid)
		}
	}
	for rid, r := range f.m.responses {
		if r.InquiryID == id {
			delete(f.m.responses, rid)
		}
	}
	delete(f.m.inquiries, id)
	sort.Strings(paths)
	return paths, nil
}

func (f *fakeInquiries) FindByID(_ context.Context, id uint) (*models.Inquiry, error) {
	stored, ok := f.m.inquiries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	inq := *stored
	if c, ok := f.m.categories[inq.CategoryID]; ok {
		cp := *c
		inq.Category = &cp
	}
	if r, ok := f.m.requesters[inq.RequesterID]; ok {
		cp := *r
		inq.Requester = &cp
	}
	inq.Responses = f.m.responsesFor(id)
	inq.Attachments = nil
	for _, a := range f.m.attachments {
		if a.InquiryID != nil && *a.InquiryID == id {
			inq.Attachments = append(inq.Attachments, *a)
		}
	}
	return &inq, nil
}

func (f *fakeInquiries) List(_ context.Context, scope repository.Scope, filter repository.InquiryFilter) ([]models.Inquiry, int64, error) {
	var out []models.Inquiry
	for _, inq := range f.m.inquiries {
		if f.m.visible(scope, inq) && (filter.Status == "" || inq.Status == filter.Status) {
			out = append(out, *inq)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeInquiries) ListByRequester(_ context.Context, scope repository.Scope, requesterID uint) ([]models.Inquiry, error) {
	var out []models.Inquiry
	for _, inq := range f.m.inquiries {
		if inq.RequesterID == requesterID && f.m.visible(scope, inq) {
			out = append(out, *inq)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeInquiries) HasResponseFrom(_ context.Context, inquiryID, userID uint) (bool, error) {
	for _, r := range f.m.responses {
		if r.InquiryID == inquiryID && r.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInquiries) UpdateStatusIf(_ context.Context, id uint, from, to models.InquiryStatus) (bool, error) {
	inq, ok := f.m.inquiries[id]
	if !ok || inq.Status != from {
		return false, nil
	}
	inq.Status = to
	return true, nil
}

func (f *fakeInquiries) StatusCounts(_ context.Context, scope repository.Scope) (map[models.InquiryStatus]int64, error) {
	counts := map[models.InquiryStatus]int64{}
	for _, s := range models.Statuses {
		counts[s] = 0
	}
	for _, inq := range f.m.inquiries {
		if f.m.visible(scope, inq) {
			counts[inq.Status]++
		}
	}
	return counts, nil
}

func (f *fakeInquiries) CategoryCounts(_ context.Context, scope repository.Scope) ([]repository.CategoryCount, error) {
	byID := map[uint]int64{}
	for _, inq := range f.m.inquiries {
		if f.m.visible(scope, inq) {
			byID[inq.CategoryID]++
		}
	}
	var out []repository.CategoryCount
	for id, n := range byID {
		out = append(out, repository.CategoryCount{CategoryID: id, CategoryName: f.m.categories[id].Name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryID < out[j].CategoryID })
	return out, nil
}

func (f *fakeInquiries) MonthlyCounts(_ context.Context, scope repository.Scope, year int) ([]repository.MonthCount, error) {
	months := make([]repository.MonthCount, 12)
	for i := range months {
		months[i].Month = i + 1
	}
	for _, inq := range f.m.inquiries {
		if f.m.visible(scope, inq) && inq.CreatedAt.Year() == year {
			months[inq.CreatedAt.Month()-1].Count++
		}
	}
	return months, nil
}

type fakeResponses struct{ m *memDB }

func (f *fakeResponses) Create(_ context.Context, r *models.Response) error {
	if _, ok := f.m.inquiries[r.InquiryID]; !ok {
		return repository.ErrForeignKey
	}
	r.ID = f.m.id()
	r.CreatedAt = time.Now()
	cp := *r
	f.m.responses[r.ID] = &cp
	return nil
}

func (f *fakeResponses) FindByID(_ context.Context, id uint) (*models.Response, error) {
	r, ok := f.m.responses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	if u, ok := f.m.users[r.UserID]; ok {
		user := *u
		cp.User = &user
	}
	return &cp, nil
}

func (f *fakeResponses) ListByInquiry(_ context.Context, inquiryID uint) ([]models.Response, error) {
	return f.m.responsesFor(inquiryID), nil
}

func (f *fakeResponses) ListByUser(_ context.Context, userID uint) ([]models.Response, error) {
	var out []models.Response
	for _, r := range f.m.responses {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeAttachments struct{ m *memDB }

func (f *fakeAttachments) Create(_ context.Context, a *models.Attachment) error {
	a.ID = f.m.id()
	cp := *a
	f.m.attachments[a.ID] = &cp
	return nil
}

func (f *fakeAttachments) Delete(_ context.Context, id uint) error {
	if _, ok := f.m.attachments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.m.attachments, id)
	return nil
}

func (f *fakeAttachments) FindByID(_ context.Context, id uint) (*models.Attachment, error) {
	a, ok := f.m.attachments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAttachments) ListByInquiry(_ context.Context, inquiryID uint) ([]models.Attachment, error) {
	var out []models.Attachment
	for _, a := range f.m.attachments {
		if a.InquiryID != nil && *a.InquiryID == inquiryID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAttachments) ListByResponse(_ context.Context, responseID uint) ([]models.Attachment, error) {
	var out []models.Attachment
	for _, a := range f.m.attachments {
		if a.ResponseID != nil && *a.ResponseID == responseID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeReferences[T any, P Reference[T]] struct {
	m          *memDB
	items      map[uint]*T
	setID      func(P, uint)
	dependents func(id uint) int64
}

func (f *fakeReferences[T, P]) Create(_ context.Context, item *T) error {
	for _, existing := range f.items {
		if P(existing).GetName() == P(item).GetName() {
			return repository.ErrDuplicate
		}
	}
	f.setID(P(item), f.m.id())
	cp := *item
	f.items[P(item).GetID()] = &cp
	return nil
}

func (f *fakeReferences[T, P]) Update(_ context.Context, item *T) error {
	cp := *item
	f.items[P(item).GetID()] = &cp
	return nil
}

func (f *fakeReferences[T, P]) Delete(_ context.Context, id uint) error {
	if _, ok := f.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeReferences[T, P]) FindByID(_ context.Context, id uint) (*T, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (f *fakeReferences[T, P]) FindByName(_ context.Context, name string) (*T, error) {
	for _, item := range f.items {
		if P(item).GetName() == name {
			cp := *item
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeReferences[T, P]) List(_ context.Context) ([]T, error) {
	var out []T
	for _, item := range f.items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return P(&out[i]).GetName() < P(&out[j]).GetName() })
	return out, nil
}

func (f *fakeReferences[T, P]) CountDependents(_ context.Context, id uint) (int64, error) {
	return f.dependents(id), nil
}

// recordingNotifier counts messages instead of sending them.
type recordingNotifier struct {
	confirmations []string
	completions   []string
	resets        []string
	err           error
}

func (n *recordingNotifier) SendConfirmation(_ context.Context, to string, id uint, _, _ string) error {
	n.confirmations = append(n.confirmations, fmt.Sprintf("%s#%d", to, id))
	return n.err
}

func (n *recordingNotifier) SendCompletion(_ context.Context, to string, id uint, _ string) error {
	n.completions = append(n.completions, fmt.Sprintf("%s#%d", to, id))
	return n.err
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, to, token string) error {
	n.resets = append(n.resets, token)
	return n.err
}

// memFiles is an in-memory storage.FileStore.
type memFiles struct {
	files   map[string][]byte
	deleted []string
	n       int
}

func newMemFiles() *memFiles {
	return &memFiles{files: map[string][]byte{}}
}

func (f *memFiles) Save(_ context.Context, data []byte) (string, error) {
	f.n++
	path := fmt.Sprintf("inq_%d", f.n)
	f.files[path] = data
	return path, nil
}

func (f *memFiles) Exists(_ context.Context, path string) (bool, error) {
	_, ok := f.files[path]
	return ok, nil
}

func (f *memFiles) Delete(_ context.Context, path string) error {
	delete(f.files, path)
	f.deleted = append(f.deleted, path)
	return nil
}

func (f *memFiles) Open(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, storage.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func nullLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

func callerFor(u *models.User) *Caller {
	return &Caller{UserID: u.ID, Email: u.Email, Role: u.Role, FirstName: u.FirstName, LastName: u.LastName}
}

func strPtr(s string) *string { return &s }

func uintPtr(v uint) *uint { return &v }

func boolPtr(b bool) *bool { return &b }

func statusPtr(s models.InquiryStatus) *models.InquiryStatus { return &s }
