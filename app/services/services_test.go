package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Rakhulsr/go-portal/app/helpers"
	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/Rakhulsr/go-portal/app/testutil"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90wS\xde")

type recordingQueue struct {
	mu   sync.Mutex
	jobs []string
	err  error
}

func (q *recordingQueue) Enqueue(_ context.Context, name string, _ any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, name)
	return q.err
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendHTMLEmail(to, subject, htmlBody string) error {
	args := m.Called(to, subject, htmlBody)
	return args.Error(0)
}

// mapStore is a synchronous cache store so tests can observe contents.
type mapStore struct {
	mu   sync.Mutex
	data map[any]any
}

func newMapStore() *mapStore { return &mapStore{data: map[any]any{}} }

func (s *mapStore) Get(_ context.Context, key any) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, errors.New("value not found")
	}
	return v, nil
}

func (s *mapStore) GetWithTTL(ctx context.Context, key any) (any, time.Duration, error) {
	v, err := s.Get(ctx, key)
	return v, 0, err
}

func (s *mapStore) Set(_ context.Context, key any, value any, _ ...store.Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *mapStore) Delete(_ context.Context, key any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *mapStore) Invalidate(_ context.Context, _ ...store.InvalidateOption) error { return nil }

func (s *mapStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = map[any]any{}
	return nil
}

func (s *mapStore) GetType() string { return "map" }

func (s *mapStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}

type fixture struct {
	db      *gorm.DB
	blog    *BlogService
	tasks   *TaskService
	catalog *CatalogService
	account *AccountService
	queue   *recordingQueue
	store   *mapStore
	media   *MediaStore
}

func newFixture(t *testing.T) *fixture {
	db := testutil.NewDB(t)
	validate := helpers.NewValidator()
	perms := repositories.NewPermissionRepository(db)
	media := NewMediaStore(t.TempDir())
	queue := &recordingQueue{}
	cars := repositories.NewCarRepository(db)
	manufacturers := repositories.NewManufacturerRepository(db)
	st := newMapStore()

	return &fixture{
		db: db,
		blog: NewBlogService(
			repositories.NewTopicRepository(db),
			repositories.NewBlogPostRepository(db),
			repositories.NewCommentRepository(db),
			perms, media, queue, validate,
		),
		tasks:   NewTaskService(repositories.NewTaskRepository(db), validate),
		catalog: NewCatalogService(cars, manufacturers, perms, NewCatalogCache(st, cars, manufacturers), validate),
		account: NewAccountService(repositories.NewUserRepository(db), perms, media, validate),
		queue:   queue,
		store:   st,
		media:   media,
	}
}

func TestTopicCreateRequiresCapability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "writer@example.com")

	_, err := f.blog.CreateTopic(ctx, user, TopicInput{Name: "Go"})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.blog.CreateTopic(ctx, nil, TopicInput{Name: "Go"})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	testutil.Grant(t, f.db, user, models.CapAddTopic)
	topic, err := f.blog.CreateTopic(ctx, user, TopicInput{Name: "  Go "})
	require.NoError(t, err)
	assert.Equal(t, "Go", topic.Name)
}

func TestTopicValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, f.db, "admin@example.com")
	testutil.Grant(t, f.db, admin, models.CapAddTopic, models.CapChangeTopic)

	_, err := f.blog.CreateTopic(ctx, admin, TopicInput{})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "missing", verrs[0].Type)
	assert.Equal(t, "name", verrs[0].Field)

	parent, err := f.blog.CreateTopic(ctx, admin, TopicInput{Name: "Go"})
	require.NoError(t, err)

	_, err = f.blog.CreateTopic(ctx, admin, TopicInput{Name: "Go"})
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "unique", verrs[0].Type)

	_, err = f.blog.CreateTopic(ctx, admin, TopicInput{Name: "Orphan", ParentTopicID: testutil.UintPtr(999)})
	assert.ErrorIs(t, err, ErrReferenceNotFound)
	var refErr *ReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "parent_topic", refErr.Field)

	_, err = f.blog.UpdateTopic(ctx, admin, parent.ID, TopicInput{Name: "Go", ParentTopicID: &parent.ID})
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "parent_topic", verrs[0].Field)

	child, err := f.blog.CreateTopic(ctx, admin, TopicInput{Name: "Generics", ParentTopicID: &parent.ID})
	require.NoError(t, err)
	assert.Equal(t, "Go", child.ParentName())

	updated, err := f.blog.UpdateTopic(ctx, admin, child.ID, TopicInput{Name: "Generics"})
	require.NoError(t, err)
	assert.Nil(t, updated.ParentTopicID)

	_, err = f.blog.UpdateTopic(ctx, admin, 12345, TopicInput{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostLifecycleWithImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, f.db, "author@example.com")
	testutil.Grant(t, f.db, author, models.CapAddBlogPost, models.CapChangeBlogPost, models.CapDeleteBlogPost)

	first, err := f.blog.CreatePost(ctx, author, PostInput{Title: "Part 1", Content: "a"})
	require.NoError(t, err)
	require.NotNil(t, first.Author)
	assert.Equal(t, "author@example.com", first.Author.Email)

	second, err := f.blog.CreatePost(ctx, author, PostInput{
		Title:      "Part 2",
		Content:    "b",
		PreviousID: &first.ID,
		Image:      &Upload{Filename: "Cover.PNG", Data: pngHeader},
	})
	require.NoError(t, err)
	assert.Equal(t, "blog/post_"+uintString(second.ID)+".png", second.Image)
	assert.True(t, f.media.Exists(second.Image))

	next, err := f.blog.NextPost(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, second.ID, next.ID)

	_, err = f.blog.UpdatePost(ctx, author, second.ID, PostInput{Title: "Part 2", Content: "b", PreviousID: &second.ID})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)

	_, err = f.blog.CreatePost(ctx, author, PostInput{Title: "bad", Content: "x", Image: &Upload{Filename: "a.png", Data: []byte("plain text")}})
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "image", verrs[0].Field)

	require.NoError(t, f.blog.DeletePost(ctx, author, second.ID))
	assert.False(t, f.media.Exists("blog/post_"+uintString(second.ID)+".png"))
	_, err = f.blog.GetPost(ctx, second.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentsQueueEmailAndRemovalRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, f.db, "author@example.com")
	reader := testutil.CreateUser(t, f.db, "reader@example.com")
	moderator := testutil.CreateUser(t, f.db, "mod@example.com")
	testutil.Grant(t, f.db, author, models.CapAddBlogPost)
	testutil.Grant(t, f.db, moderator, models.CapDeleteComment)

	post, err := f.blog.CreatePost(ctx, author, PostInput{Title: "Hello", Content: "x"})
	require.NoError(t, err)

	_, err = f.blog.AddComment(ctx, reader, post.ID, "   ")
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)

	_, err = f.blog.AddComment(ctx, reader, 9999, "hi")
	assert.ErrorIs(t, err, ErrReferenceNotFound)

	first, err := f.blog.AddComment(ctx, reader, post.ID, "first!")
	require.NoError(t, err)
	assert.Equal(t, []string{JobCommentEmail}, f.queue.jobs)

	f.queue.err = ErrQueueFull
	second, err := f.blog.AddComment(ctx, reader, post.ID, "queue down, still saved")
	require.NoError(t, err)

	_, err = f.blog.RemoveComment(ctx, author, first.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	removed, err := f.blog.RemoveComment(ctx, reader, first.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, removed.BlogPostID)

	_, err = f.blog.RemoveComment(ctx, moderator, second.ID)
	require.NoError(t, err)

	left, err := f.blog.Comments(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestCommentEmailJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, f.db, "author@example.com")
	reader := testutil.CreateUser(t, f.db, "reader@example.com")
	testutil.Grant(t, f.db, author, models.CapAddBlogPost)

	post, err := f.blog.CreatePost(ctx, author, PostInput{Title: "Hello", Content: "x"})
	require.NoError(t, err)
	comment, err := f.blog.AddComment(ctx, reader, post.ID, "nice <b>post</b>")
	require.NoError(t, err)

	sender := new(mockSender)
	sender.On("SendHTMLEmail", "author@example.com", "New comment on Hello", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "nice &lt;b&gt;post&lt;/b&gt;")
	})).Return(nil).Once()

	job := NewCommentEmailJob(repositories.NewCommentRepository(f.db), sender, "", "http://localhost:8000/")
	payload, _ := json.Marshal(CommentEmailPayload{CommentID: comment.ID})
	require.NoError(t, job(ctx, payload))
	sender.AssertExpectations(t)

	override := new(mockSender)
	override.On("SendHTMLEmail", "ops@example.com", mock.Anything, mock.Anything).Return(nil).Once()
	job = NewCommentEmailJob(repositories.NewCommentRepository(f.db), override, "ops@example.com", "")
	require.NoError(t, job(ctx, payload))
	override.AssertExpectations(t)

	missing, _ := json.Marshal(CommentEmailPayload{CommentID: 4242})
	assert.Error(t, job(ctx, missing))
}

func TestTaskOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice@example.com")
	bob := testutil.CreateUser(t, f.db, "bob@example.com")

	task, err := f.tasks.CreateTask(ctx, alice, TaskInput{Title: "Write tests"})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusNew, task.Status)
	require.NotNil(t, task.CreatedBy)
	assert.Equal(t, "alice@example.com", task.CreatedBy.Email)

	_, err = f.tasks.GetTask(ctx, bob, task.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
	_, err = f.tasks.UpdateTask(ctx, bob, task.ID, TaskInput{Title: "mine now"})
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.ErrorIs(t, f.tasks.DeleteTask(ctx, bob, task.ID), ErrNotOwner)
	_, err = f.tasks.GetTask(ctx, bob, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	items, total, err := f.tasks.ListTasks(ctx, bob, repositories.ListQuery{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)

	_, err = f.tasks.UpdateTask(ctx, alice, task.ID, TaskInput{Title: "Write tests", Status: "someday"})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "status", verrs[0].Field)

	updated, err := f.tasks.UpdateTask(ctx, alice, task.ID, TaskInput{Title: "Write tests", Status: models.TaskStatusInProgress, Category: "dev"})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusInProgress, updated.Status)
	assert.Equal(t, "dev", updated.Category)

	require.NoError(t, f.tasks.DeleteTask(ctx, alice, task.ID))
}

func TestCatalogWritesRefreshCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, f.db, "admin@example.com")
	require.NoError(t, f.db.Model(admin).Update("is_superuser", true).Error)
	admin.IsSuperuser = true

	manufacturers, err := f.catalog.Manufacturers(ctx)
	require.NoError(t, err)
	assert.Empty(t, manufacturers)
	assert.True(t, f.store.has(ManufacturerCacheKey))

	ford, err := f.catalog.CreateManufacturer(ctx, admin, ManufacturerInput{Name: "Ford"})
	require.NoError(t, err)

	manufacturers, err = f.catalog.Manufacturers(ctx)
	require.NoError(t, err)
	require.Len(t, manufacturers, 1)
	assert.Equal(t, "Ford", manufacturers[0].Name)

	_, err = f.catalog.CreateCar(ctx, admin, CarInput{Name: "Focus", ManufacturerID: ford.ID, Price: decimal.RequireFromString("19999.99")})
	require.NoError(t, err)

	cars, err := f.catalog.Cars(ctx)
	require.NoError(t, err)
	require.Len(t, cars, 1)
	assert.Equal(t, "Ford", cars[0].Manufacturer.Name)
	assert.True(t, cars[0].Price.Equal(decimal.RequireFromString("19999.99")))

	_, err = f.catalog.UpdateManufacturer(ctx, admin, ford.ID, ManufacturerInput{Name: "Ford Motor"})
	require.NoError(t, err)
	cars, err = f.catalog.Cars(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ford Motor", cars[0].Manufacturer.Name)

	require.NoError(t, f.catalog.DeleteManufacturer(ctx, admin, ford.ID))
	cars, err = f.catalog.Cars(ctx)
	require.NoError(t, err)
	assert.Empty(t, cars)
}

func TestCarValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, f.db, "admin@example.com")
	testutil.Grant(t, f.db, admin, models.CapAddManufacturer, models.CapAddCar)

	ford, err := f.catalog.CreateManufacturer(ctx, admin, ManufacturerInput{Name: "Ford"})
	require.NoError(t, err)
	_, err = f.catalog.CreateCar(ctx, admin, CarInput{Name: "Focus", ManufacturerID: ford.ID})
	require.NoError(t, err)

	cases := map[string]CarInput{
		"name":         {Name: "Focus", ManufacturerID: ford.ID},
		"manufacturer": {Name: "Ghost", ManufacturerID: 999},
		"price":        {Name: "Fiesta", ManufacturerID: ford.ID, Price: decimal.RequireFromString("-1")},
	}
	for field, in := range cases {
		_, err := f.catalog.CreateCar(ctx, admin, in)
		var verrs ValidationErrors
		require.ErrorAs(t, err, &verrs, field)
		assert.Equal(t, field, verrs[0].Field)
	}

	_, err = f.catalog.CreateCar(ctx, admin, CarInput{Name: "Fiesta", ManufacturerID: ford.ID, Price: decimal.RequireFromString("1.005")})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "price", verrs[0].Field)

	assert.ErrorIs(t, f.catalog.DeleteCar(ctx, admin, 1), ErrPermissionDenied)
}

func TestAccountFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.account.Register(ctx, RegisterInput{Email: "new@example.com", Password: "longenough", Password2: "different!"})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "password2", verrs[0].Field)

	user, err := f.account.Register(ctx, RegisterInput{
		FirstName:    "Ada",
		Email:        "new@example.com",
		Password:     "longenough",
		Password2:    "longenough",
		ProfileImage: &Upload{Filename: "me.png", Data: pngHeader},
	})
	require.NoError(t, err)
	assert.Equal(t, "authentication/profile_"+uintString(user.ID)+".png", user.ProfileImage)

	_, err = f.account.Register(ctx, RegisterInput{Email: "NEW@example.com", Password: "longenough", Password2: "longenough"})
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "unique", verrs[0].Type)

	_, err = f.account.Authenticate(ctx, "nobody@example.com", "x")
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "email", verrs[0].Field)

	_, err = f.account.Authenticate(ctx, "new@example.com", "wrong-password")
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "password", verrs[0].Field)

	logged, err := f.account.Authenticate(ctx, "new@example.com", "longenough")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	require.NoError(t, f.account.ChangePassword(ctx, logged, PasswordInput{Password: "brand-new-pass", Password2: "brand-new-pass"}))
	_, err = f.account.Authenticate(ctx, "new@example.com", "brand-new-pass")
	require.NoError(t, err)

	token, err := f.account.GenerateToken(ctx, logged)
	require.NoError(t, err)
	byToken, err := f.account.UserByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byToken.ID)

	rotated, err := f.account.GenerateToken(ctx, logged)
	require.NoError(t, err)
	assert.NotEqual(t, token, rotated)
	_, err = f.account.UserByToken(ctx, token)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.account.DeleteAccount(ctx, logged))
	assert.False(t, f.media.Exists(user.ProfileImage))
	_, err = f.account.UserByID(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateSuperuserAndGrants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.account.CreateSuperuser(ctx, RegisterInput{Email: "not-an-email", Password: "longenough"})
	assert.Error(t, err)

	admin, err := f.account.CreateSuperuser(ctx, RegisterInput{Email: "root@example.com", Password: "longenough", FirstName: "Root"})
	require.NoError(t, err)
	caps, err := f.account.Capabilities(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, models.AllCapabilities, caps)

	user := testutil.CreateUser(t, f.db, "staff@example.com")
	require.NoError(t, f.account.Grant(ctx, "staff@example.com", models.CapAddCar))
	caps, err = f.account.Capabilities(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []models.Capability{models.CapAddCar}, caps)

	require.NoError(t, f.account.Revoke(ctx, "staff@example.com", models.CapAddCar))
	caps, err = f.account.Capabilities(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, caps)

	assert.ErrorIs(t, f.account.Grant(ctx, "ghost@example.com", models.CapAddCar), ErrNotFound)
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
