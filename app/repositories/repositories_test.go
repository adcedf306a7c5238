package repositories

import (
	"context"
	"strconv"
	"testing"

	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicDeleteNullsChildrenAndPosts(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	topics := NewTopicRepository(db)
	posts := NewBlogPostRepository(db)

	parent := &models.Topic{Name: "Go"}
	require.NoError(t, topics.Create(ctx, parent))
	child := &models.Topic{Name: "Generics", ParentTopicID: &parent.ID}
	require.NoError(t, topics.Create(ctx, child))
	post := &models.BlogPost{Title: "Intro", Content: "x", TopicID: &parent.ID}
	require.NoError(t, posts.Create(ctx, post))

	require.NoError(t, topics.Delete(ctx, parent.ID))

	reloaded, err := topics.GetByID(ctx, child.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.ParentTopicID)

	reloadedPost, err := posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, reloadedPost.TopicID)

	assert.ErrorIs(t, topics.Delete(ctx, parent.ID), ErrNotFound)
}

func TestTopicNameUnique(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	topics := NewTopicRepository(db)

	first := &models.Topic{Name: "Go"}
	require.NoError(t, topics.Create(ctx, first))
	err := topics.Create(ctx, &models.Topic{Name: "Go"})
	assert.ErrorIs(t, err, ErrDuplicate)

	taken, err := topics.NameTaken(ctx, "Go", 0)
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = topics.NameTaken(ctx, "Go", first.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestPostChainNextAndPreviousDeletion(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	posts := NewBlogPostRepository(db)

	first := &models.BlogPost{Title: "Part 1", Content: "a"}
	require.NoError(t, posts.Create(ctx, first))
	second := &models.BlogPost{Title: "Part 2", Content: "b", PreviousID: &first.ID}
	require.NoError(t, posts.Create(ctx, second))
	third := &models.BlogPost{Title: "Part 2 alt", Content: "c", PreviousID: &first.ID}
	require.NoError(t, posts.Create(ctx, third))

	next, err := posts.GetNext(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, second.ID, next.ID)

	none, err := posts.GetNext(ctx, third.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	loaded, err := posts.GetByID(ctx, second.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Previous)
	assert.Equal(t, "Part 1", loaded.Previous.Title)

	require.NoError(t, posts.Delete(ctx, first.ID))
	loaded, err = posts.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.PreviousID)
}

func TestUserDeleteCascadesAndNulls(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	posts := NewBlogPostRepository(db)
	comments := NewCommentRepository(db)
	tasks := NewTaskRepository(db)
	perms := NewPermissionRepository(db)

	author := testutil.CreateUser(t, db, "author@example.com")
	post := &models.BlogPost{Title: "Hello", Content: "x", AuthorID: &author.ID}
	require.NoError(t, posts.Create(ctx, post))
	comment := &models.Comment{Content: "nice", BlogPostID: post.ID, AuthorID: author.ID}
	require.NoError(t, comments.Create(ctx, comment))
	task := &models.Task{Title: "t", Status: models.TaskStatusNew, CreatedByID: &author.ID}
	require.NoError(t, tasks.Create(ctx, task))
	require.NoError(t, perms.Grant(ctx, author.ID, models.CapAddTopic))

	require.NoError(t, users.Delete(ctx, author.ID))

	reloadedPost, err := posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, reloadedPost.AuthorID)

	_, err = comments.GetByID(ctx, comment.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	reloadedTask, err := tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, reloadedTask.CreatedByID)

	caps, err := perms.ListForUser(ctx, author.ID)
	require.NoError(t, err)
	assert.Empty(t, caps)
}

func TestPostDeleteCascadesComments(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	posts := NewBlogPostRepository(db)
	comments := NewCommentRepository(db)

	user := testutil.CreateUser(t, db, "c@example.com")
	post := &models.BlogPost{Title: "Hello", Content: "x"}
	require.NoError(t, posts.Create(ctx, post))
	require.NoError(t, comments.Create(ctx, &models.Comment{Content: "a", BlogPostID: post.ID, AuthorID: user.ID}))

	require.NoError(t, posts.Delete(ctx, post.ID))
	left, err := comments.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestCarUniquePerManufacturer(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	manufacturers := NewManufacturerRepository(db)
	cars := NewCarRepository(db)

	ford := &models.Manufacturer{Name: "Ford"}
	require.NoError(t, manufacturers.Create(ctx, ford))
	audi := &models.Manufacturer{Name: "Audi"}
	require.NoError(t, manufacturers.Create(ctx, audi))

	require.NoError(t, cars.Create(ctx, &models.Car{Name: "Focus", ManufacturerID: ford.ID, Price: decimal.NewFromInt(100)}))
	require.NoError(t, cars.Create(ctx, &models.Car{Name: "Focus", ManufacturerID: audi.ID}))

	err := cars.Create(ctx, &models.Car{Name: "Focus", ManufacturerID: ford.ID})
	assert.ErrorIs(t, err, ErrDuplicate)

	taken, err := cars.PairTaken(ctx, "Focus", ford.ID, 0)
	require.NoError(t, err)
	assert.True(t, taken)

	require.NoError(t, manufacturers.Delete(ctx, ford.ID))
	all, err := cars.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Audi", all[0].Manufacturer.Name)
}

func TestListSearchSortAndWindow(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	topics := NewTopicRepository(db)

	for _, name := range []string{"alpha", "beta", "alphabet", "gamma", "al_pha"} {
		require.NoError(t, topics.Create(ctx, &models.Topic{Name: name}))
	}

	items, total, err := topics.List(ctx, ListQuery{Search: "alp", Sort: "-name"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, "alphabet", items[0].Name)
	assert.Equal(t, "alpha", items[1].Name)

	items, total, err = topics.List(ctx, ListQuery{Search: "al_", Sort: "name"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "al_pha", items[0].Name)

	items, total, err = topics.List(ctx, ListQuery{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, items, 2)
	assert.Equal(t, "alphabet", items[0].Name)

	_, _, err = topics.List(ctx, ListQuery{Sort: "password"})
	assert.ErrorIs(t, err, ErrInvalidSort)
}

func TestListFilterByRelatedName(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	topics := NewTopicRepository(db)
	posts := NewBlogPostRepository(db)

	golang := &models.Topic{Name: "Go"}
	require.NoError(t, topics.Create(ctx, golang))
	rust := &models.Topic{Name: "Rust"}
	require.NoError(t, topics.Create(ctx, rust))
	require.NoError(t, posts.Create(ctx, &models.BlogPost{Title: "a", Content: "x", TopicID: &golang.ID}))
	require.NoError(t, posts.Create(ctx, &models.BlogPost{Title: "b", Content: "x", TopicID: &rust.ID}))

	items, total, err := posts.List(ctx, ListQuery{Filters: map[string]string{"topic_name": "Rust"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Rust", items[0].Topic.Name)
}

func TestListFilterByIDRejectsNonNumeric(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	topics := NewTopicRepository(db)
	posts := NewBlogPostRepository(db)

	golang := &models.Topic{Name: "Go"}
	require.NoError(t, topics.Create(ctx, golang))
	require.NoError(t, posts.Create(ctx, &models.BlogPost{Title: "a", Content: "x", TopicID: &golang.ID}))

	items, total, err := posts.List(ctx, ListQuery{Filters: map[string]string{"topic": "abc"}})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)

	items, total, err = posts.List(ctx, ListQuery{Filters: map[string]string{"topic": strconv.FormatUint(uint64(golang.ID), 10)}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, items, 1)
}

func TestTasksListedOnlyForOwner(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	tasks := NewTaskRepository(db)

	alice := testutil.CreateUser(t, db, "alice@example.com")
	bob := testutil.CreateUser(t, db, "bob@example.com")
	require.NoError(t, tasks.Create(ctx, &models.Task{Title: "a1", Status: models.TaskStatusNew, CreatedByID: &alice.ID}))
	require.NoError(t, tasks.Create(ctx, &models.Task{Title: "a2", Status: models.TaskStatusDone, CreatedByID: &alice.ID}))
	require.NoError(t, tasks.Create(ctx, &models.Task{Title: "b1", Status: models.TaskStatusNew, CreatedByID: &bob.ID}))

	items, total, err := tasks.ListOwnedBy(ctx, alice.ID, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)

	items, total, err = tasks.ListOwnedBy(ctx, alice.ID, ListQuery{Filters: map[string]string{"status": "done"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "a2", items[0].Title)
}

func TestUserTokenLookupAndPermissions(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	perms := NewPermissionRepository(db)

	user := &models.User{Email: "  Mixed@Example.com ", Password: "pw-123456"}
	require.NoError(t, users.Create(ctx, user))
	assert.Equal(t, "mixed@example.com", user.Email)
	assert.NotEqual(t, "pw-123456", user.Password)

	require.NoError(t, users.SetToken(ctx, user.ID, "abc123"))
	found, err := users.FindByToken(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = users.FindByToken(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)

	has, err := perms.Has(ctx, user, models.CapAddCar)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, perms.Grant(ctx, user.ID, models.CapAddCar))
	require.NoError(t, perms.Grant(ctx, user.ID, models.CapAddCar))
	has, err = perms.Has(ctx, user, models.CapAddCar)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, perms.Revoke(ctx, user.ID, models.CapAddCar))
	has, err = perms.Has(ctx, user, models.CapAddCar)
	require.NoError(t, err)
	assert.False(t, has)

	has, err = perms.Has(ctx, &models.User{IsSuperuser: true}, models.CapDeleteCar)
	require.NoError(t, err)
	assert.True(t, has)
}
