package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mseiser/SelfMemo2/internal/models"
)

// mockScheduledReminderRepository is an in-memory implementation of the scheduled reminder repositories
type mockScheduledReminderRepository struct {
	mu     sync.Mutex
	events map[int]models.ScheduledReminder
	nextID int
	err    error
}

func newMockScheduledReminderRepository(events ...models.ScheduledReminder) *mockScheduledReminderRepository {
	m := &mockScheduledReminderRepository{events: map[int]models.ScheduledReminder{}}
	for _, event := range events {
		m.events[event.ID] = event
		if event.ID > m.nextID {
			m.nextID = event.ID
		}
	}
	return m
}

func (m *mockScheduledReminderRepository) Create(ctx context.Context, event *models.ScheduledReminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.events {
		if existing.ReminderID == event.ReminderID && existing.Timestamp.Equal(event.Timestamp) {
			return models.ErrDuplicateScheduledReminder
		}
	}
	m.nextID++
	event.ID = m.nextID
	m.events[event.ID] = *event
	return nil
}

func (m *mockScheduledReminderRepository) GetByID(ctx context.Context, id int) (*models.ScheduledReminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	event, ok := m.events[id]
	if !ok {
		return nil, models.ErrScheduledReminderNotFound
	}
	return &event, nil
}

func (m *mockScheduledReminderRepository) GetByReminderIDAndTimestamp(ctx context.Context, reminderID int, timestamp time.Time) (*models.ScheduledReminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, event := range m.events {
		if event.ReminderID == reminderID && event.Timestamp.Equal(timestamp) {
			return &event, nil
		}
	}
	return nil, models.ErrScheduledReminderNotFound
}

func (m *mockScheduledReminderRepository) GetAllByReminderID(ctx context.Context, reminderID int) ([]models.ScheduledReminder, error) {
	return m.filter(func(event models.ScheduledReminder) bool { return event.ReminderID == reminderID })
}

func (m *mockScheduledReminderRepository) GetInRange(ctx context.Context, from, to time.Time) ([]models.ScheduledReminder, error) {
	return m.filter(func(event models.ScheduledReminder) bool {
		return !event.Timestamp.Before(from) && event.Timestamp.Before(to)
	})
}

func (m *mockScheduledReminderRepository) Delete(ctx context.Context, id int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.events[id]; !ok {
		return false, nil
	}
	delete(m.events, id)
	return true, nil
}

func (m *mockScheduledReminderRepository) DeleteAllByReminderID(ctx context.Context, reminderID int) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	ids := []int{}
	for id, event := range m.events {
		if event.ReminderID == reminderID {
			ids = append(ids, id)
			delete(m.events, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (m *mockScheduledReminderRepository) filter(keep func(models.ScheduledReminder) bool) ([]models.ScheduledReminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var events []models.ScheduledReminder
	for _, event := range m.events {
		if keep(event) {
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].ID < events[j].ID
		}
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events, nil
}

// timestamps returns the sorted timestamps of a reminder's events
func (m *mockScheduledReminderRepository) timestamps(reminderID int) []time.Time {
	events, _ := m.GetAllByReminderID(context.Background(), reminderID)
	times := make([]time.Time, 0, len(events))
	for _, event := range events {
		times = append(times, event.Timestamp)
	}
	return times
}

// mockDueIndex records index updates
type mockDueIndex struct {
	mu      sync.Mutex
	added   map[int]time.Time
	removed []int
	err     error
}

func newMockDueIndex() *mockDueIndex {
	return &mockDueIndex{added: map[int]time.Time{}}
}

func (m *mockDueIndex) Add(ctx context.Context, id int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.added[id] = at
	return nil
}

func (m *mockDueIndex) Remove(ctx context.Context, ids ...int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.removed = append(m.removed, ids...)
	return nil
}

// mockReminderRepository is an in-memory implementation of the reminder repositories
type mockReminderRepository struct {
	mu        sync.Mutex
	reminders map[int]models.Reminder
	nextID    int
	lastSent  map[int]time.Time
	err       error
}

func newMockReminderRepository(reminders ...models.Reminder) *mockReminderRepository {
	m := &mockReminderRepository{reminders: map[int]models.Reminder{}, lastSent: map[int]time.Time{}}
	for _, reminder := range reminders {
		m.reminders[reminder.ID] = reminder
		if reminder.ID > m.nextID {
			m.nextID = reminder.ID
		}
	}
	return m
}

func (m *mockReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	reminder.ID = m.nextID
	m.reminders[reminder.ID] = *reminder
	return nil
}

func (m *mockReminderRepository) GetByID(ctx context.Context, id int) (*models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	reminder, ok := m.reminders[id]
	if !ok {
		return nil, models.ErrReminderNotFound
	}
	return &reminder, nil
}

func (m *mockReminderRepository) GetAll(ctx context.Context) ([]models.Reminder, error) {
	return m.list(func(models.Reminder) bool { return true })
}

func (m *mockReminderRepository) GetAllByUserID(ctx context.Context, userID int) ([]models.Reminder, error) {
	return m.list(func(reminder models.Reminder) bool { return reminder.UserID == userID })
}

func (m *mockReminderRepository) list(keep func(models.Reminder) bool) ([]models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var reminders []models.Reminder
	for _, reminder := range m.reminders {
		if keep(reminder) {
			reminders = append(reminders, reminder)
		}
	}
	sort.Slice(reminders, func(i, j int) bool { return reminders[i].ID < reminders[j].ID })
	return reminders, nil
}

func (m *mockReminderRepository) Update(ctx context.Context, reminder *models.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.reminders[reminder.ID] = *reminder
	return nil
}

func (m *mockReminderRepository) UpdateLastSent(ctx context.Context, id int, lastSent time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.lastSent[id] = lastSent
	return nil
}

func (m *mockReminderRepository) Delete(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.reminders[id]; !ok {
		return models.ErrReminderNotFound
	}
	delete(m.reminders, id)
	return nil
}

// mockUserRepository is a mock implementation of UserRepository
type mockUserRepository struct {
	user *models.User
	err  error
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

// mockEmailTemplateRepository is a mock implementation of EmailTemplateRepository
type mockEmailTemplateRepository struct {
	templates map[string]models.EmailTemplateParts
	err       error
}

func (m *mockEmailTemplateRepository) GetTemplateBySlug(ctx context.Context, slug string) (*models.EmailTemplateParts, error) {
	if m.err != nil {
		return nil, m.err
	}
	parts, ok := m.templates[slug]
	if !ok {
		return nil, models.ErrEmailTemplateNotFound
	}
	return &parts, nil
}

type sentEmail struct {
	to      string
	subject string
	body    string
}

// mockMailer records sent emails
type mockMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{to: to, subject: subject, body: body})
	return nil
}

// mockNotifier records notified events
type mockNotifier struct {
	mu       sync.Mutex
	notified []models.ScheduledReminder
	delay    time.Duration
	err      error
}

func (m *mockNotifier) Notify(ctx context.Context, reminder *models.Reminder, event *models.ScheduledReminder, now time.Time) error {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notified = append(m.notified, *event)
	return m.err
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notified)
}

func date(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}
