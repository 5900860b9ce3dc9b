package state_test

import (
	"context"
	"errors"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/jsdelfino/watsonwork-weather/internal/domain"
	"github.com/jsdelfino/watsonwork-weather/internal/state"
)

type failingStore struct {
	getErr error
	putErr error
}

func (f failingStore) Get(ctx context.Context, key state.Key) (*domain.ConversationState, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &domain.ConversationState{}, nil
}

func (f failingStore) Put(ctx context.Context, key state.Key, st *domain.ConversationState) error {
	return f.putErr
}

var _ = Describe("Key", func() {
	It("joins space and user", func() {
		Expect(state.Key{SpaceID: "s1", UserID: "u1"}.String()).To(Equal("s1:u1"))
	})
})

var _ = Describe("MemoryStore", func() {
	var (
		ctx   context.Context
		store *state.MemoryStore
		key   state.Key
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = state.NewMemoryStore()
		key = state.Key{SpaceID: "space-1", UserID: "user-1"}
	})

	It("returns an empty state for an unknown key", func() {
		st, err := store.Get(ctx, key)
		Expect(err).NotTo(HaveOccurred())
		Expect(st).To(Equal(&domain.ConversationState{}))
	})

	It("round-trips a stored state", func() {
		in := &domain.ConversationState{Action: "Get_Weather_Conditions", City: "Seattle, WA"}
		Expect(store.Put(ctx, key, in)).To(Succeed())

		out, err := store.Get(ctx, key)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(in))
	})

	It("does not share values with callers", func() {
		in := &domain.ConversationState{City: "Seattle, WA"}
		Expect(store.Put(ctx, key, in)).To(Succeed())
		in.City = "Austin, TX"

		out, err := store.Get(ctx, key)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.City).To(Equal("Seattle, WA"))
	})

	It("keeps users apart", func() {
		Expect(store.Put(ctx, key, &domain.ConversationState{City: "Seattle, WA"})).To(Succeed())

		other, err := store.Get(ctx, state.Key{SpaceID: "space-1", UserID: "user-2"})
		Expect(err).NotTo(HaveOccurred())
		Expect(other.City).To(BeEmpty())
		Expect(store.Len()).To(Equal(1))
	})
})

var _ = Describe("WithState", func() {
	var (
		ctx   context.Context
		store *state.MemoryStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = state.NewMemoryStore()
	})

	It("persists changes when asked to", func() {
		err := state.WithState(ctx, store, "s1", "u1", func(ctx context.Context, st *domain.ConversationState) (bool, error) {
			st.City = "Austin, TX"
			return true, nil
		})
		Expect(err).NotTo(HaveOccurred())

		st, _ := store.Get(ctx, state.Key{SpaceID: "s1", UserID: "u1"})
		Expect(st.City).To(Equal("Austin, TX"))
	})

	It("drops changes when not asked to save", func() {
		err := state.WithState(ctx, store, "s1", "u1", func(ctx context.Context, st *domain.ConversationState) (bool, error) {
			st.City = "Austin, TX"
			return false, nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Len()).To(Equal(0))
	})

	It("passes the previous state to the next step", func() {
		Expect(store.Put(ctx, state.Key{SpaceID: "s1", UserID: "u1"}, &domain.ConversationState{City: "Boston, MA"})).To(Succeed())

		var seen string
		err := state.WithState(ctx, store, "s1", "u1", func(ctx context.Context, st *domain.ConversationState) (bool, error) {
			seen = st.City
			return false, nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(seen).To(Equal("Boston, MA"))
	})

	It("returns the handler error without saving", func() {
		boom := errors.New("boom")
		err := state.WithState(ctx, store, "s1", "u1", func(ctx context.Context, st *domain.ConversationState) (bool, error) {
			return true, boom
		})
		Expect(err).To(MatchError(boom))
		Expect(store.Len()).To(Equal(0))
	})

	It("does not run the handler when loading fails", func() {
		called := false
		err := state.WithState(ctx, failingStore{getErr: state.ErrStore}, "s1", "u1", func(ctx context.Context, st *domain.ConversationState) (bool, error) {
			called = true
			return true, nil
		})
		Expect(err).To(MatchError(state.ErrStore))
		Expect(called).To(BeFalse())
	})

	It("reports save failures", func() {
		err := state.WithState(ctx, failingStore{putErr: state.ErrStore}, "s1", "u1", func(ctx context.Context, st *domain.ConversationState) (bool, error) {
			return true, nil
		})
		Expect(err).To(MatchError(state.ErrStore))
	})
})

var _ = Describe("RedisStore", func() {
	var (
		ctx    context.Context
		client *redis.Client
		store  *state.RedisStore
		key    state.Key
	)

	BeforeEach(func() {
		url := os.Getenv("REDIS_URL")
		if url == "" {
			Skip("REDIS_URL not set")
		}
		opts, err := redis.ParseURL(url)
		Expect(err).NotTo(HaveOccurred())

		ctx = context.Background()
		client = redis.NewClient(opts)
		DeferCleanup(client.Close)

		store = state.NewRedisStore(client, state.RedisStoreConfig{KeyPrefix: "weather:test", TTL: time.Minute})
		key = state.Key{SpaceID: "space-redis", UserID: "user-redis"}
		DeferCleanup(func() { client.Del(ctx, "weather:test:"+key.String()) })
	})

	It("returns an empty state for an unknown key", func() {
		st, err := store.Get(ctx, key)
		Expect(err).NotTo(HaveOccurred())
		Expect(st).To(Equal(&domain.ConversationState{}))
	})

	It("round-trips a stored state with expiry", func() {
		in := &domain.ConversationState{City: "Seattle, WA", Conditions: &domain.WeatherConditions{
			Geo:         &domain.Geo{City: "Seattle", AdminDistrictCode: "WA"},
			Observation: domain.Observation{Temp: 55, FeelsLike: 50, WxPhrase: "Cloudy"},
		}}
		Expect(store.Put(ctx, key, in)).To(Succeed())

		out, err := store.Get(ctx, key)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(in))

		ttl, err := client.TTL(ctx, "weather:test:"+key.String()).Result()
		Expect(err).NotTo(HaveOccurred())
		Expect(ttl).To(BeNumerically(">", 0))
	})
})
