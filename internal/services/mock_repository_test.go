package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/svsf-edu/enrollment-service/internal/models"
	"github.com/svsf-edu/enrollment-service/internal/repositories"
)

// In-memory repository for service tests. Behaves like the postgres
// implementation for everything the services touch.

type mockUserRepository struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*models.User)}
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *mockUserRepository) Upsert(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[id]
	return ok, nil
}

func (m *mockUserRepository) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return false, nil
	}
	return user.Role == role, nil
}

type mockApplicationRepository struct {
	mu           sync.Mutex
	applications map[string]*models.Application
	users        *mockUserRepository

	createErr error
	updateErr error
}

func newMockApplicationRepository(users *mockUserRepository) *mockApplicationRepository {
	return &mockApplicationRepository{
		applications: make(map[string]*models.Application),
		users:        users,
	}
}

func (m *mockApplicationRepository) Create(ctx context.Context, tx *gorm.DB, application *models.Application) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if application.CreatedAt.IsZero() {
		application.CreatedAt = time.Now()
	}
	copied := *application
	m.applications[application.ID] = &copied
	return nil
}

func (m *mockApplicationRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	application, ok := m.applications[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *application
	return &copied, nil
}

func (m *mockApplicationRepository) GetByIDWithUser(ctx context.Context, tx *gorm.DB, id string) (*models.Application, error) {
	application, err := m.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if user, err := m.users.GetByID(ctx, application.UserID); err == nil {
		application.User = *user
	}
	return application, nil
}

func (m *mockApplicationRepository) Update(ctx context.Context, tx *gorm.DB, application *models.Application) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.applications[application.ID]; !ok {
		return repositories.ErrNotFound
	}
	copied := *application
	m.applications[application.ID] = &copied
	return nil
}

func (m *mockApplicationRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status models.ApplicationStatus) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	application, ok := m.applications[id]
	if !ok {
		return repositories.ErrNotFound
	}
	application.Status = status
	return nil
}

func (m *mockApplicationRepository) RotateVerificationCode(ctx context.Context, tx *gorm.DB, id string, code string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	application, ok := m.applications[id]
	if !ok {
		return repositories.ErrNotFound
	}
	application.VerificationCode = &code
	return nil
}

func (m *mockApplicationRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.ApplicationFilters) ([]*models.Application, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*models.Application
	for _, application := range m.applications {
		if filters.Status != nil && application.Status != *filters.Status {
			continue
		}
		if filters.GradeLevel != nil && application.GradeLevel != *filters.GradeLevel {
			continue
		}
		if filters.Strand != nil && (application.Strand == nil || *application.Strand != *filters.Strand) {
			continue
		}
		if filters.UserID != nil && application.UserID != *filters.UserID {
			continue
		}
		copied := *application
		if user, ok := m.users.users[application.UserID]; ok {
			copied.User = *user
		}
		matched = append(matched, &copied)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if filters.Limit > 0 {
		start := filters.Offset
		if start > len(matched) {
			start = len(matched)
		}
		end := start + filters.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}

	return matched, total, nil
}

func (m *mockApplicationRepository) CountByUser(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, application := range m.applications {
		if application.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *mockApplicationRepository) GetStats(ctx context.Context, tx *gorm.DB) (*repositories.ApplicationStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &repositories.ApplicationStats{
		ByStatus:     make(map[models.ApplicationStatus]int64),
		ByGradeLevel: make(map[models.GradeLevel]int64),
	}
	for _, application := range m.applications {
		stats.Total++
		stats.ByStatus[application.Status]++
		stats.ByGradeLevel[application.GradeLevel]++
	}
	return stats, nil
}

// storedCode reads the persisted verification code directly, bypassing the
// repository surface.
func (m *mockApplicationRepository) storedCode(id string) *string {
	m.mu.Lock()
	defer m.mu.Unlock()
	application, ok := m.applications[id]
	if !ok {
		return nil
	}
	return application.VerificationCode
}

type mockRepository struct {
	applicationRepo *mockApplicationRepository
	userRepo        *mockUserRepository
}

func newMockRepository() *mockRepository {
	users := newMockUserRepository()
	return &mockRepository{
		applicationRepo: newMockApplicationRepository(users),
		userRepo:        users,
	}
}

func (m *mockRepository) Application() repositories.ApplicationRepository { return m.applicationRepo }
func (m *mockRepository) User() repositories.UserRepository               { return m.userRepo }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// addUser seeds an account and returns its ID.
func (m *mockRepository) addUser(id, firstName, lastName string, role models.UserRole) *models.User {
	user := &models.User{
		ID:        id,
		FirstName: firstName,
		LastName:  lastName,
		Email:     id + "@example.com",
		Role:      role,
	}
	m.userRepo.users[id] = user
	return user
}

// addApplication seeds an application owned by userID.
func (m *mockRepository) addApplication(id, userID string, grade models.GradeLevel, status models.ApplicationStatus) *models.Application {
	application := &models.Application{
		ID:         id,
		UserID:     userID,
		GradeLevel: grade,
		Status:     status,
		FormData:   []byte(`{"student":{}}`),
		CreatedAt:  time.Now(),
	}
	m.applicationRepo.applications[id] = application
	return application
}
