package room

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dungeonofmasters/dom-server/internal/config"
	"github.com/dungeonofmasters/dom-server/internal/dice"
	"github.com/dungeonofmasters/dom-server/internal/domain/combat"
	"github.com/dungeonofmasters/dom-server/internal/domain/game"
	"github.com/dungeonofmasters/dom-server/internal/domain/grid"
	apperrors "github.com/dungeonofmasters/dom-server/internal/errors"
	"github.com/dungeonofmasters/dom-server/internal/repositories/rooms"
)

type sinkEvent struct {
	RoomID  string
	Event   string
	Payload any
}

// recordingSink captures published events for assertions
type recordingSink struct {
	mu     sync.Mutex
	events []sinkEvent
}

func (r *recordingSink) Publish(roomID, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sinkEvent{RoomID: roomID, Event: event, Payload: payload})
}

func (r *recordingSink) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Event
	}
	return out
}

func (r *recordingSink) has(event string) bool {
	for _, name := range r.names() {
		if name == event {
			return true
		}
	}
	return false
}

type fixture struct {
	svc    Service
	repo   Repository
	sink   *recordingSink
	roller *dice.MockRoller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := rooms.NewInMemoryRepository()
	sink := &recordingSink{}
	roller := dice.NewMockRoller()

	svc := NewService(&ServiceConfig{
		Repository: repo,
		Events:     sink,
		Roller:     roller,
		Game: config.GameConfig{
			FieldSize:  15,
			ShopStands: 4,
		},
		Rand: rand.New(rand.NewSource(42)),
	})

	return &fixture{svc: svc, repo: repo, sink: sink, roller: roller}
}

// startedRoom creates a room, joins the given players, picks the warrior
// for everyone, readies up and starts the game.
func (f *fixture) startedRoom(t *testing.T, uids ...string) *game.Room {
	t.Helper()
	ctx := context.Background()

	room, err := f.svc.CreateRoom(ctx, &CreateRoomInput{UID: uids[0], Username: uids[0]})
	require.NoError(t, err)

	for _, uid := range uids[1:] {
		_, err := f.svc.Join(ctx, room.ID, &JoinInput{UID: uid, Username: uid})
		require.NoError(t, err)
	}
	for _, uid := range uids {
		require.NoError(t, f.svc.SelectCharacter(ctx, room.ID, uid, 0))
		require.NoError(t, f.svc.Ready(ctx, room.ID, uid))
	}

	started, err := f.svc.StartGame(ctx, room.ID, uids[0])
	require.NoError(t, err)
	return started
}

func TestCreateJoinStart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.startedRoom(t, "alice")

	assert.Equal(t, game.StateInProgress, room.State)
	assert.Equal(t, "alice", room.Queue)
	require.NotNil(t, room.Field)
	assert.True(t, room.Field.Walkable(room.Field.Entry))
	assert.Len(t, room.Shop, 4)
	require.NotNil(t, room.Boss)
	assert.True(t, room.Boss.Alive())

	// everyone starts on the entry cell
	for _, p := range room.Players {
		assert.Equal(t, room.Field.Entry, p.Character.Pos)
	}

	assert.True(t, f.sink.has(EventLoadingGame))
	assert.True(t, f.sink.has(EventStartGame))

	stored, err := f.svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, game.StateInProgress, stored.State)
}

func TestStartGameRequiresOwnerAndReadiness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.svc.CreateRoom(ctx, &CreateRoomInput{UID: "alice"})
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, room.ID, &JoinInput{UID: "bob"})
	require.NoError(t, err)

	require.NoError(t, f.svc.SelectCharacter(ctx, room.ID, "alice", 0))
	require.NoError(t, f.svc.SelectCharacter(ctx, room.ID, "bob", 1))
	require.NoError(t, f.svc.Ready(ctx, room.ID, "alice"))

	// not everyone is ready
	_, err = f.svc.StartGame(ctx, room.ID, "alice")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	require.NoError(t, f.svc.Ready(ctx, room.ID, "bob"))

	// not the owner
	_, err = f.svc.StartGame(ctx, room.ID, "bob")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.GetCode(err))

	_, err = f.svc.StartGame(ctx, room.ID, "alice")
	require.NoError(t, err)
}

func TestReadyRequiresCharacter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.svc.CreateRoom(ctx, &CreateRoomInput{UID: "alice"})
	require.NoError(t, err)

	err = f.svc.Ready(ctx, room.ID, "alice")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestJoinInProgressRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.startedRoom(t, "alice")

	_, err := f.svc.Join(ctx, room.ID, &JoinInput{UID: "late"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestOwnerLeaveTransfersOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.svc.CreateRoom(ctx, &CreateRoomInput{UID: "alice"})
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, room.ID, &JoinInput{UID: "bob"})
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, room.ID, &JoinInput{UID: "carol"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Leave(ctx, room.ID, "alice"))

	stored, err := f.svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, stored.Players, 2)
	assert.Equal(t, "bob", stored.Owner().UID)
	assert.True(t, f.sink.has(EventLeavingTheLobby))
}

func TestLastLeaveTearsDownRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.svc.CreateRoom(ctx, &CreateRoomInput{UID: "alice"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Leave(ctx, room.ID, "alice"))

	_, err = f.svc.GetRoom(ctx, room.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRollDiceAndMove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.startedRoom(t, "alice")

	f.roller.SetNextRoll(3)
	report, err := f.svc.RollDice(ctx, room.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, report.Result)
	require.NotEmpty(t, report.Cells)
	assert.Equal(t, room.Field.Entry, report.Cells[0])

	// rolling twice in one turn is rejected
	f.roller.SetNextRoll(5)
	_, err = f.svc.RollDice(ctx, room.ID, "alice")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	// a cell outside the ways set is an illegal target
	_, err = f.svc.Move(ctx, room.ID, "alice", grid.Cell{Row: -5, Col: -5})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	target := report.Cells[len(report.Cells)-1]
	moved, err := f.svc.Move(ctx, room.ID, "alice", target)
	require.NoError(t, err)
	assert.Equal(t, target, moved.Player("alice").Character.Pos)

	// the consumed roll cannot back another move
	_, err = f.svc.Move(ctx, room.ID, "alice", report.Cells[0])
	require.Error(t, err)
}

func TestMoveWithoutRoll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.startedRoom(t, "alice")

	_, err := f.svc.Move(ctx, room.ID, "alice", room.Field.Entry)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestWrongTurnRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.startedRoom(t, "alice", "bob")

	_, err := f.svc.RollDice(ctx, room.ID, "bob")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestQueueCyclesThroughPlayersAndBoss(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.startedRoom(t, "alice", "bob")
	require.Equal(t, "alice", room.Queue)

	require.NoError(t, f.svc.PassMove(ctx, room.ID, "alice"))
	stored, err := f.svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", stored.Queue)

	// bob's pass wraps through the boss's turn back to alice
	require.NoError(t, f.svc.PassMove(ctx, room.ID, "bob"))
	stored, err = f.svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Queue)
	assert.True(t, f.sink.has(EventBossSkill))
}

func TestFightResolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.startedRoom(t, "alice")

	// stage a fight against a known enemy next to alice
	stored, err := f.repo.Get(ctx, room.ID)
	require.NoError(t, err)
	char := stored.Player("alice").Character
	enemy := &combat.Enemy{
		ID:          99,
		Name:        "Training Dummy",
		HP:          100,
		Damage:      2,
		AttackRange: 1,
		Reward:      5,
		Pos:         grid.Cell{Row: char.Pos.Row + 1, Col: char.Pos.Col},
	}
	stored.Enemies = append(stored.Enemies, enemy)
	stored.Fight = &game.Fight{UID: "alice", Candidates: []int{99}, TargetID: &enemy.ID}
	// keep the wrap-around boss turn out of the picture
	stored.Boss.HP = 0
	require.NoError(t, f.repo.Update(ctx, stored))

	hpBefore := char.HP
	f.roller.SetNextRoll(2)
	report, err := f.svc.RollFightDice(ctx, room.ID, "alice")
	require.NoError(t, err)

	// warrior: damage 5 + roll 2
	assert.Equal(t, 7, report.Damage)
	assert.Equal(t, 93, report.TargetHP)
	assert.False(t, report.Killed)

	// melee defender counters through armor 1
	assert.Equal(t, 1, report.Counter)

	after, err := f.svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, hpBefore-1, after.Player("alice").Character.HP)
	assert.Nil(t, after.Fight)
	assert.Equal(t, 93, after.EnemyByID(99).HP)
}

func TestFightKillGrantsReward(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.startedRoom(t, "alice")

	stored, err := f.repo.Get(ctx, room.ID)
	require.NoError(t, err)
	char := stored.Player("alice").Character
	enemy := &combat.Enemy{
		ID:          7,
		Name:        "Rat",
		HP:          3,
		Damage:      1,
		AttackRange: 1,
		Reward:      4,
		Pos:         grid.Cell{Row: char.Pos.Row + 1, Col: char.Pos.Col},
	}
	stored.Enemies = append(stored.Enemies, enemy)
	stored.Fight = &game.Fight{UID: "alice", Candidates: []int{7}, TargetID: &enemy.ID}
	stored.Boss.HP = 0
	require.NoError(t, f.repo.Update(ctx, stored))

	f.roller.SetNextRoll(1)
	report, err := f.svc.RollFightDice(ctx, room.ID, "alice")
	require.NoError(t, err)
	assert.True(t, report.Killed)
	assert.Equal(t, 4, report.Reward)
	assert.Zero(t, report.Counter)

	after, err := f.svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, after.Player("alice").Character.Coins)
	assert.Nil(t, after.EnemyByID(7))
}

func TestChoiceEnemy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.startedRoom(t, "alice")

	stored, err := f.repo.Get(ctx, room.ID)
	require.NoError(t, err)
	stored.Fight = &game.Fight{UID: "alice", Candidates: []int{1, 2}}
	require.NoError(t, f.repo.Update(ctx, stored))

	err = f.svc.ChoiceEnemy(ctx, room.ID, "alice", 5)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	require.NoError(t, f.svc.ChoiceEnemy(ctx, room.ID, "alice", 2))

	after, err := f.svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	require.NotNil(t, after.Fight.TargetID)
	assert.Equal(t, 2, *after.Fight.TargetID)
}

func TestBuyItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.startedRoom(t, "alice")

	// broke adventurers window-shop only
	err := f.svc.BuyItem(ctx, room.ID, "alice", 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	stored, err := f.repo.Get(ctx, room.ID)
	require.NoError(t, err)
	stored.Player("alice").Character.Coins = 1000
	require.NoError(t, f.repo.Update(ctx, stored))

	require.NoError(t, f.svc.BuyItem(ctx, room.ID, "alice", 0))

	after, err := f.svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, after.Shop[0].Sold)
	char := after.Player("alice").Character
	assert.Less(t, char.Coins, 1000)
	assert.NotNil(t, char.Items[0])

	// a sold stand stays sold
	err = f.svc.BuyItem(ctx, room.ID, "alice", 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.True(t, f.sink.has(EventBuyingAnItem))
}

func TestRemoveItemRefundsHalf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.startedRoom(t, "alice")

	stored, err := f.repo.Get(ctx, room.ID)
	require.NoError(t, err)
	stored.Player("alice").Character.Coins = 1000
	require.NoError(t, f.repo.Update(ctx, stored))
	require.NoError(t, f.svc.BuyItem(ctx, room.ID, "alice", 0))

	bought, err := f.svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	it := bought.Player("alice").Character.Items[0]
	coinsAfterBuy := bought.Player("alice").Character.Coins

	require.NoError(t, f.svc.RemoveItem(ctx, room.ID, "alice", 0))

	after, err := f.svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	char := after.Player("alice").Character
	assert.Nil(t, char.Items[0])
	assert.Equal(t, coinsAfterBuy+it.SellPrice(), char.Coins)
	assert.True(t, f.sink.has(EventRemovingAnItem))
}

func TestExitAdvancesLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.startedRoom(t, "alice")

	// dead boss, pending roll reaching the exit
	stored, err := f.repo.Get(ctx, room.ID)
	require.NoError(t, err)
	char := stored.Player("alice").Character
	char.Coins = 7
	char.HP = 3
	stored.Boss.HP = 0
	stored.MoveData = &game.MoveData{
		UID:    "alice",
		Result: 1,
		Ways:   [][]grid.Cell{{char.Pos, stored.Field.Exit}},
	}
	require.NoError(t, f.repo.Update(ctx, stored))

	moved, err := f.svc.Move(ctx, room.ID, "alice", stored.Field.Exit)
	require.NoError(t, err)

	// a fresh floor: new field, shop, boss and enemies
	assert.Equal(t, 2, moved.Level)
	assert.Equal(t, game.StateInProgress, moved.State)
	require.NotNil(t, moved.Boss)
	assert.True(t, moved.Boss.Alive())
	assert.Len(t, moved.Shop, 4)
	assert.Nil(t, moved.MoveData)
	assert.Equal(t, "alice", moved.Queue)

	// characters carry over but restart from the entry
	after := moved.Player("alice").Character
	assert.Equal(t, moved.Field.Entry, after.Pos)
	assert.Equal(t, 7, after.Coins)
	assert.Equal(t, 3, after.HP)

	starts := 0
	for _, name := range f.sink.names() {
		if name == EventStartGame {
			starts++
		}
	}
	assert.Equal(t, 2, starts)

	persisted, err := f.svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, persisted.Level)
}

func TestGameOverWhenLastCharacterDies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.startedRoom(t, "alice")

	stored, err := f.repo.Get(ctx, room.ID)
	require.NoError(t, err)
	char := stored.Player("alice").Character
	char.HP = 1
	enemy := &combat.Enemy{
		ID:          13,
		Name:        "Executioner",
		HP:          500,
		Damage:      50,
		AttackRange: 1,
		Pos:         grid.Cell{Row: char.Pos.Row + 1, Col: char.Pos.Col},
	}
	stored.Enemies = append(stored.Enemies, enemy)
	stored.Fight = &game.Fight{UID: "alice", Candidates: []int{13}, TargetID: &enemy.ID}
	stored.Boss.HP = 0
	require.NoError(t, f.repo.Update(ctx, stored))

	f.roller.SetNextRoll(1)
	report, err := f.svc.RollFightDice(ctx, room.ID, "alice")
	require.NoError(t, err)
	assert.False(t, report.Killed)
	assert.Greater(t, report.Counter, 0)

	// the counter killed the last character: game over, room gone
	assert.True(t, f.sink.has(EventGameOver))
	_, err = f.svc.GetRoom(ctx, room.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGameOverOnFinalBossKill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.startedRoom(t, "alice")

	stored, err := f.repo.Get(ctx, room.ID)
	require.NoError(t, err)
	stored.Level = 5
	stored.Boss.HP = 1
	target := game.BossTarget
	stored.Fight = &game.Fight{UID: "alice", Candidates: []int{target}, TargetID: &target}
	require.NoError(t, f.repo.Update(ctx, stored))

	f.roller.SetNextRoll(1)
	report, err := f.svc.RollFightDice(ctx, room.ID, "alice")
	require.NoError(t, err)
	assert.True(t, report.Killed)
	assert.Equal(t, game.BossTarget, report.TargetID)

	assert.True(t, f.sink.has(EventGameOver))
	_, err = f.svc.GetRoom(ctx, room.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

// flakyRepository lets a test fail stores on demand
type flakyRepository struct {
	Repository
	failUpdates bool
}

func (r *flakyRepository) Update(ctx context.Context, room *game.Room) error {
	if r.failUpdates {
		return errors.New("store offline")
	}
	return r.Repository.Update(ctx, room)
}

func TestFailedStorePublishesNothing(t *testing.T) {
	ctx := context.Background()
	repo := &flakyRepository{Repository: rooms.NewInMemoryRepository()}
	sink := &recordingSink{}
	svc := NewService(&ServiceConfig{
		Repository: repo,
		Events:     sink,
		Roller:     dice.NewMockRoller(),
		Game: config.GameConfig{
			FieldSize:  15,
			ShopStands: 4,
		},
		Rand: rand.New(rand.NewSource(42)),
	})

	room, err := svc.CreateRoom(ctx, &CreateRoomInput{UID: "alice"})
	require.NoError(t, err)

	repo.failUpdates = true
	_, err = svc.Join(ctx, room.ID, &JoinInput{UID: "bob"})
	require.Error(t, err)

	// nothing was stored, so nothing is broadcast
	assert.False(t, sink.has(EventJoiningTheLobby))

	repo.failUpdates = false
	stored, err := svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Players, 1)

	_, err = svc.Join(ctx, room.ID, &JoinInput{UID: "bob"})
	require.NoError(t, err)
	assert.True(t, sink.has(EventJoiningTheLobby))
}

func TestOnTickHealsBoss(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.startedRoom(t, "alice")

	stored, err := f.repo.Get(ctx, room.ID)
	require.NoError(t, err)
	stored.Boss.HP = 1
	require.NoError(t, f.repo.Update(ctx, stored))

	now := stored.LastBossHeal.Add(time.Minute)
	require.NoError(t, f.svc.OnTick(ctx, now))

	after, err := f.svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Greater(t, after.Boss.HP, 1)
	assert.WithinDuration(t, now, after.LastBossHeal, time.Second)
	assert.True(t, f.sink.has(EventBossHeal))

	// a second tick inside the interval does nothing
	f.sink.mu.Lock()
	f.sink.events = nil
	f.sink.mu.Unlock()
	require.NoError(t, f.svc.OnTick(ctx, now.Add(time.Second)))
	assert.False(t, f.sink.has(EventBossHeal))
}
