package pipeline_test

import (
	"context"
	"encoding/json"
	"sync"

	. "github.com/onsi/gomega"

	"github.com/jsdelfino/watsonwork-weather/internal/domain"
	"github.com/jsdelfino/watsonwork-weather/internal/state"
)

type fakeWatson struct {
	messages map[string]*domain.Message
	users    map[string]*domain.User
}

func (f *fakeWatson) FetchMessage(ctx context.Context, id string) (*domain.Message, error) {
	return f.messages[id], nil
}

func (f *fakeWatson) FetchUser(ctx context.Context, id string) (*domain.User, error) {
	return f.users[id], nil
}

type sent struct {
	Channel  string
	SpaceID  string
	UserID   string
	DialogID string
	Msg      domain.ResponseMessage
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (f *fakeMessenger) SendToSpace(ctx context.Context, spaceID string, msg domain.ResponseMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{Channel: "space", SpaceID: spaceID, Msg: msg})
	return f.err
}

func (f *fakeMessenger) SendToPrivateDialog(ctx context.Context, spaceID, userID, dialogID string, msg domain.ResponseMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{Channel: "private", SpaceID: spaceID, UserID: userID, DialogID: dialogID, Msg: msg})
	return f.err
}

type fakeWeather struct {
	conditions *domain.WeatherConditions
	forecast   *domain.WeatherForecast
	calls      int
}

func (f *fakeWeather) Conditions(ctx context.Context, city string) (*domain.WeatherConditions, error) {
	f.calls++
	return f.conditions, nil
}

func (f *fakeWeather) Forecast(ctx context.Context, city string) (*domain.WeatherForecast, error) {
	f.calls++
	return f.forecast, nil
}

type brokenStore struct {
	state.Store
	putErr error
}

func (b brokenStore) Put(ctx context.Context, key state.Key, st *domain.ConversationState) error {
	return b.putErr
}

func mustJSON(v any) string {
	raw, err := json.Marshal(v)
	Expect(err).NotTo(HaveOccurred())
	return string(raw)
}

func mustAnnotation(v any) domain.Annotation {
	var a domain.Annotation
	Expect(json.Unmarshal([]byte(mustJSON(v)), &a)).To(Succeed())
	return a
}
