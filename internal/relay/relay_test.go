package relay_test

import (
	"math/big"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang/mock/gomock"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudigital-labs/token-engine/internal/domain"
	"github.com/sudigital-labs/token-engine/internal/logger"
	"github.com/sudigital-labs/token-engine/internal/mocks"
	"github.com/sudigital-labs/token-engine/internal/relay"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func testEvent(seq uint64) domain.TokenEvent {
	to := common.HexToAddress("0x1111111111111111111111111111111111111111")
	return domain.TokenEvent{
		Type:      domain.EventTypeMint,
		Sequence:  seq,
		Timestamp: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		Caller:    common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		To:        &to,
		Quantity:  big.NewInt(100),
	}
}

func TestHandlePersistsThenPublishes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := mocks.NewMockStore(ctrl)
	p := mocks.NewMockPublisher(ctrl)

	var stored, published *domain.TokenEvent
	gomock.InOrder(
		s.EXPECT().AppendEvent(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ interface{}, ev *domain.TokenEvent) error {
				stored = ev
				return nil
			}),
		p.EXPECT().PublishEvent(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ interface{}, ev *domain.TokenEvent) error {
				published = ev
				return nil
			}),
	)

	r := relay.New(relay.Config{PoolSize: 1}, s, p)
	r.Handle(testEvent(1))
	r.Close()

	require.NotNil(t, stored)
	require.NotNil(t, published)
	assert.Equal(t, stored, published)
	assert.Equal(t, uint64(1), stored.Sequence)
	assert.Equal(t, domain.EventTypeMint, stored.Type)

	// The relay stamped a well-formed ULID keyed to the event timestamp
	id, err := ulid.ParseStrict(stored.ID)
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(stored.Timestamp), id.Time())
}

func TestHandleStoreFailureSkipsPublish(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := mocks.NewMockStore(ctrl)
	p := mocks.NewMockPublisher(ctrl)

	s.EXPECT().AppendEvent(gomock.Any(), gomock.Any()).Return(assert.AnError)
	// No PublishEvent expectation: publishing an unjournaled event would fail
	// the controller

	r := relay.New(relay.Config{PoolSize: 1}, s, p)
	r.Handle(testEvent(1))
	r.Close()
}

func TestHandlePublishFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := mocks.NewMockStore(ctrl)
	p := mocks.NewMockPublisher(ctrl)

	s.EXPECT().AppendEvent(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	p.EXPECT().PublishEvent(gomock.Any(), gomock.Any()).Return(assert.AnError)
	p.EXPECT().PublishEvent(gomock.Any(), gomock.Any()).Return(nil)

	// A broker hiccup on one event must not stop the next from flowing
	r := relay.New(relay.Config{PoolSize: 1}, s, p)
	r.Handle(testEvent(1))
	r.Handle(testEvent(2))
	r.Close()
}

func TestHandleAssignsMonotonicIDs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := mocks.NewMockStore(ctrl)
	p := mocks.NewMockPublisher(ctrl)

	var mu sync.Mutex
	ids := make(map[uint64]string)
	s.EXPECT().AppendEvent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, ev *domain.TokenEvent) error {
			mu.Lock()
			defer mu.Unlock()
			ids[ev.Sequence] = ev.ID
			return nil
		}).Times(10)
	p.EXPECT().PublishEvent(gomock.Any(), gomock.Any()).Return(nil).Times(10)

	// Handle assigns IDs on the caller's goroutine, so IDs must sort in
	// handoff order even when the pool drains them concurrently
	r := relay.New(relay.Config{PoolSize: 4, QueueSize: 16}, s, p)
	for seq := uint64(1); seq <= 10; seq++ {
		r.Handle(testEvent(seq))
	}
	r.Close()

	require.Len(t, ids, 10)
	ordered := make([]string, 0, len(ids))
	for seq := uint64(1); seq <= 10; seq++ {
		ordered = append(ordered, ids[seq])
	}
	assert.True(t, sort.StringsAreSorted(ordered), "ids out of order: %v", ordered)
}
