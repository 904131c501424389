package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"codenook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeEmptyPost(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.db)

	tree, err := svc.Tree(context.Background(), f.post.ID)
	require.NoError(t, err)
	assert.Empty(t, tree)

	raw, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestTreeOrdering(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.db)

	first := createComment(t, f.db, f.post, f.alice, nil, "first", baseTime.Add(1*time.Minute))
	second := createComment(t, f.db, f.post, f.bob, nil, "second", baseTime.Add(2*time.Minute))
	third := createComment(t, f.db, f.post, f.alice, nil, "third", baseTime.Add(3*time.Minute))
	late := createComment(t, f.db, f.post, f.bob, first, "late reply", baseTime.Add(9*time.Minute))
	early := createComment(t, f.db, f.post, f.alice, first, "early reply", baseTime.Add(4*time.Minute))
	deepB := createComment(t, f.db, f.post, f.bob, early, "deep b", baseTime.Add(8*time.Minute))
	deepA := createComment(t, f.db, f.post, f.alice, early, "deep a", baseTime.Add(5*time.Minute))

	tree, err := svc.Tree(context.Background(), f.post.ID)
	require.NoError(t, err)

	require.Len(t, tree, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, ids(tree))

	root := tree[2]
	assert.Equal(t, []string{early.ID, late.ID}, ids(root.Replies))
	assert.Equal(t, []string{deepA.ID, deepB.ID}, ids(root.Replies[0].Replies))
	assert.Empty(t, root.Replies[1].Replies)
	assert.Empty(t, tree[0].Replies)

	assert.Equal(t, models.Author{Name: "Alice", Image: "https://img.example/Alice.png"}, root.Author)
	assert.Equal(t, f.alice.ID, root.AuthorID)
	assert.Equal(t, &first.ID, root.Replies[0].ParentID)
	assert.Nil(t, root.ParentID)
}

func TestTreeTiesBreakByID(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.db)

	a := createComment(t, f.db, f.post, f.alice, nil, "a", baseTime)
	b := createComment(t, f.db, f.post, f.bob, nil, "b", baseTime)

	tree, err := svc.Tree(context.Background(), f.post.ID)
	require.NoError(t, err)
	want := []string{a.ID, b.ID}
	if a.ID < b.ID {
		want = []string{b.ID, a.ID}
	}
	assert.Equal(t, want, ids(tree))
}

func TestTreeIsScopedToPost(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.db)

	mine := createComment(t, f.db, f.post, f.alice, nil, "on post", baseTime)
	createComment(t, f.db, f.other, f.alice, nil, "on other", baseTime)

	tree, err := svc.Tree(context.Background(), f.post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, mine.ID, tree[0].ID)

	var walk func([]*CommentNode)
	walk = func(nodes []*CommentNode) {
		for _, n := range nodes {
			assert.Equal(t, f.post.ID, n.PostID)
			walk(n.Replies)
		}
	}
	walk(tree)
}

func TestTreeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.db)

	root := createComment(t, f.db, f.post, f.alice, nil, "root", baseTime)
	createComment(t, f.db, f.post, f.bob, root, "reply", baseTime.Add(time.Minute))

	first, err := svc.Tree(context.Background(), f.post.ID)
	require.NoError(t, err)
	second, err := svc.Tree(context.Background(), f.post.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTreeStoreFailure(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.db)
	closeDB(t, f.db)

	tree, err := svc.Tree(context.Background(), f.post.ID)
	assert.Error(t, err)
	assert.Nil(t, tree)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestBuildForestDropsUnreachable(t *testing.T) {
	missing := "missing"
	rows := []models.Comment{
		{ID: "r", Content: "root", CreatedAt: baseTime},
		{ID: "o", Content: "orphan", ParentID: &missing, CreatedAt: baseTime},
		{ID: "c", Content: "child of orphan", ParentID: strPtr("o"), CreatedAt: baseTime},
		{ID: "x", Content: "reply", ParentID: strPtr("r"), CreatedAt: baseTime},
	}

	forest := BuildForest(rows)
	require.Len(t, forest, 1)
	assert.Equal(t, "r", forest[0].ID)
	assert.Equal(t, []string{"x"}, ids(forest[0].Replies))
}

func TestCreateReplyAppearsUnderParent(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.db)
	ctx := context.Background()

	c1, err := svc.Create(ctx, f.alice, CreateCommentInput{Content: "  Great post  ", PostID: f.post.ID})
	require.NoError(t, err)
	assert.Equal(t, "Great post", c1.Content)
	assert.Nil(t, c1.ParentID)
	assert.NotNil(t, c1.Replies)
	assert.Empty(t, c1.Replies)
	assert.Equal(t, "Alice", c1.Author.Name)

	c2, err := svc.Create(ctx, f.bob, CreateCommentInput{Content: "Agreed", PostID: f.post.ID, ParentID: &c1.ID})
	require.NoError(t, err)
	assert.Equal(t, &c1.ID, c2.ParentID)

	tree, err := svc.Tree(ctx, f.post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, c1.ID, tree[0].ID)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, c2.ID, tree[0].Replies[0].ID)
	assert.Empty(t, tree[0].Replies[0].Replies)
	assert.Equal(t, "Bob", tree[0].Replies[0].Author.Name)
}

func TestCreateCommentValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.db)
	long := make([]byte, maxCommentLength+1)
	for i := range long {
		long[i] = 'a'
	}

	cases := map[string]CreateCommentInput{
		"empty content":  {Content: "", PostID: f.post.ID},
		"blank content":  {Content: " \n\t ", PostID: f.post.ID},
		"missing post":   {Content: "hello"},
		"too long":       {Content: string(long), PostID: f.post.ID},
		"unknown parent": {Content: "hello", PostID: f.post.ID, ParentID: strPtr("nope")},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), f.alice, in)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Zero(t, countRows(t, f.db, &models.Comment{}, f.post.ID))
		})
	}
}

func TestCreateCommentRejectsCrossPostParent(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.db)
	foreign := createComment(t, f.db, f.other, f.bob, nil, "elsewhere", baseTime)

	_, err := svc.Create(context.Background(), f.alice, CreateCommentInput{
		Content:  "reply",
		PostID:   f.post.ID,
		ParentID: &foreign.ID,
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, Reason(err), "another post")
	assert.Zero(t, countRows(t, f.db, &models.Comment{}, f.post.ID))
}

func TestCreateCommentBlankParentIsTopLevel(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.db)

	node, err := svc.Create(context.Background(), f.alice, CreateCommentInput{
		Content:  "hello",
		PostID:   f.post.ID,
		ParentID: strPtr(""),
	})
	require.NoError(t, err)
	assert.Nil(t, node.ParentID)
}

func TestCreateCommentUnknownOrDraftPost(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.db)
	draft := createPost(t, f.db, f.alice, "Draft", false, baseTime)

	_, err := svc.Create(context.Background(), f.alice, CreateCommentInput{Content: "hi", PostID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Create(context.Background(), f.alice, CreateCommentInput{Content: "hi", PostID: draft.ID})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, countRows(t, f.db, &models.Comment{}, draft.ID))
}

func TestCreateCommentRequiresAuthor(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.db)

	_, err := svc.Create(context.Background(), nil, CreateCommentInput{Content: "hi", PostID: f.post.ID})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Zero(t, countRows(t, f.db, &models.Comment{}, f.post.ID))
}

func TestCommentCount(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.db)
	root := createComment(t, f.db, f.post, f.alice, nil, "root", baseTime)
	createComment(t, f.db, f.post, f.bob, root, "reply", baseTime)

	n, err := svc.Count(context.Background(), f.post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func ids(nodes []*CommentNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestCreateCommentTimestampMatchesStoredValue(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.db)
	ctx := context.Background()

	created, err := svc.Create(ctx, f.bob, CreateCommentInput{Content: "timely", PostID: f.post.ID})
	require.NoError(t, err)
	assert.Zero(t, created.CreatedAt.Nanosecond()%int(time.Microsecond))

	tree, err := svc.Tree(ctx, f.post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.True(t, created.CreatedAt.Equal(tree[0].CreatedAt), "created %s, stored %s", created.CreatedAt, tree[0].CreatedAt)
}
