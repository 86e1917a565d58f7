package users

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/xyz-asif/habitstreak/internal/features/auth"
	apperrors "github.com/xyz-asif/habitstreak/pkg/errors"
)

type memStore struct {
	mu       sync.Mutex
	profiles map[string]*Profile
}

func (s *memStore) Upsert(_ context.Context, p *Profile) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	if existing, ok := s.profiles[p.Email]; ok {
		cp.ID = existing.ID
		cp.CreatedAt = existing.CreatedAt
	} else {
		cp.ID = primitive.NewObjectID()
		cp.CreatedAt = time.Now()
	}
	cp.UpdatedAt = time.Now()
	s.profiles[p.Email] = &cp
	return &cp, nil
}

func (s *memStore) GetByEmail(_ context.Context, email string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[email]
	if !ok {
		return nil, apperrors.NotFound("Profile not found")
	}
	return p, nil
}

func newRouter(store Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	asCaller := func(c *gin.Context) {
		auth.SetCaller(c, auth.Caller{Email: "ana@example.com", Name: "Ana", PhotoURL: "https://example.com/ana.png"})
		c.Next()
	}
	RegisterRoutes(r.Group(""), store, asCaller)
	return r
}

func TestHandler_UpsertAndMe(t *testing.T) {
	store := &memStore{profiles: map[string]*Profile{}}
	r := newRouter(store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body, _ := json.Marshal(UpsertProfileRequest{Name: "Ana Lima"})
	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var env struct {
		Data Profile `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Equal(t, "ana@example.com", env.Data.Email)
	require.Equal(t, "Ana Lima", env.Data.Name)
	require.Equal(t, "https://example.com/ana.png", env.Data.PhotoURL)
	require.Len(t, store.profiles, 1)
}

func TestHandler_UpsertRejectsBadPhoto(t *testing.T) {
	r := newRouter(&memStore{profiles: map[string]*Profile{}})

	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString(`{"photoUrl":"not a url"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upsert returns stored profile", func(mt *mtest.T) {
		repo := &Repository{collection: mt.Coll}
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: id},
			{Key: "email", Value: "ana@example.com"},
			{Key: "name", Value: "Ana"},
		}}))

		got, err := repo.Upsert(context.Background(), &Profile{Email: "ana@example.com", Name: "Ana"})
		require.NoError(mt, err)
		require.Equal(mt, id, got.ID)
		require.Equal(mt, "Ana", got.Name)
	})

	mt.Run("missing profile is not found", func(mt *mtest.T) {
		repo := &Repository{collection: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
		require.True(mt, errors.Is(err, apperrors.ErrNotFound))
	})
}
