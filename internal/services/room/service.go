package room

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dungeonofmasters/dom-server/internal/config"
	"github.com/dungeonofmasters/dom-server/internal/content"
	"github.com/dungeonofmasters/dom-server/internal/dice"
	"github.com/dungeonofmasters/dom-server/internal/domain/character"
	"github.com/dungeonofmasters/dom-server/internal/domain/game"
	"github.com/dungeonofmasters/dom-server/internal/domain/grid"
	apperrors "github.com/dungeonofmasters/dom-server/internal/errors"
	"github.com/dungeonofmasters/dom-server/internal/repositories/rooms"
	"github.com/dungeonofmasters/dom-server/internal/uuid"
)

// Repository is an alias for the room repository interface
type Repository = rooms.Repository

// Service defines the room service interface
type Service interface {
	// CreateRoom creates a lobby with the creator as its owner
	CreateRoom(ctx context.Context, input *CreateRoomInput) (*game.Room, error)

	// GetRoom retrieves a room snapshot by ID
	GetRoom(ctx context.Context, roomID string) (*game.Room, error)

	// Join adds a player to a lobby
	Join(ctx context.Context, roomID string, input *JoinInput) (*game.Room, error)

	// Leave removes a player; an emptied room is torn down
	Leave(ctx context.Context, roomID, uid string) error

	// SelectCharacter assigns a character archetype to a lobby member
	SelectCharacter(ctx context.Context, roomID, uid string, characterID int) error

	// Ready marks a lobby member ready
	Ready(ctx context.Context, roomID, uid string) error

	// NoReady clears a lobby member's ready flag
	NoReady(ctx context.Context, roomID, uid string) error

	// StartGame begins the session; owner only, all members ready
	StartGame(ctx context.Context, roomID, uid string) (*game.Room, error)

	// RollDice tumbles the movement die for the acting player
	RollDice(ctx context.Context, roomID, uid string) (*RollReport, error)

	// Move walks the acting player to a cell reachable from the pending
	// roll
	Move(ctx context.Context, roomID, uid string, target grid.Cell) (*game.Room, error)

	// ChoiceEnemy resolves an ambiguous fight target: an enemy id or
	// game.BossTarget for the boss
	ChoiceEnemy(ctx context.Context, roomID, uid string, targetID int) error

	// RollFightDice resolves the pending fight exchange
	RollFightDice(ctx context.Context, roomID, uid string) (*FightReport, error)

	// PassMove forfeits the rest of the acting player's turn
	PassMove(ctx context.Context, roomID, uid string) error

	// BuyItem purchases a shop stand's item for the player's character
	BuyItem(ctx context.Context, roomID, uid string, standIndex int) error

	// RemoveItem sells an equipped item back for half price
	RemoveItem(ctx context.Context, roomID, uid string, itemIndex int) error

	// OnTick runs time-based rules (periodic boss heal) across all rooms
	OnTick(ctx context.Context, now time.Time) error
}

// CreateRoomInput contains data for creating a room
type CreateRoomInput struct {
	UID      string
	Username string
	Icon     int
}

// JoinInput identifies the joining player
type JoinInput struct {
	UID      string
	Username string
	Icon     int
}

// EventSink receives room-scoped events for broadcasting. The transport
// layer implements it; payloads are snapshots and must not be mutated.
type EventSink interface {
	Publish(roomID, event string, payload any)
}

// Event names on the wire
const (
	EventJoiningTheLobby     = "joining_the_lobby"
	EventLeavingTheLobby     = "leaving_the_lobby"
	EventCharacterSelection  = "character_selection"
	EventReady               = "ready"
	EventNoReady             = "no_ready"
	EventLoadingGame         = "loading_game"
	EventStartGame           = "start_game"
	EventRollingTheDice      = "rolling_the_dice"
	EventPlayerMoving        = "player_moving"
	EventRollingTheFightDice = "rolling_the_fight_dice"
	EventSetQueue            = "set_queue"
	EventBuyingAnItem        = "buying_an_item"
	EventRemovingAnItem      = "removing_an_item"
	EventBossSkill           = "boss_skill"
	EventBossHeal            = "boss_heal"
	EventGameOver            = "game_over"
	EventRoomClosed          = "room_closed"
)

// service implements the Service interface
type service struct {
	repository    Repository
	events        EventSink
	roller        dice.Roller
	uuidGenerator uuid.Generator
	log           *logrus.Logger
	gameCfg       config.GameConfig
	rng           *rand.Rand

	// locks serializes operations per room id
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Repository    Repository        // Required
	Events        EventSink         // Required
	Roller        dice.Roller       // Optional, defaults to the random roller
	UUIDGenerator uuid.Generator    // Optional, will use default if nil
	Logger        *logrus.Logger    // Optional, defaults to the standard logger
	Game          config.GameConfig // Optional, zero fields get defaults
	Rand          *rand.Rand        // Optional, defaults to a time-seeded source
}

// NewService creates a new room service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Repository == nil {
		panic("repository is required")
	}
	if cfg.Events == nil {
		panic("event sink is required")
	}

	svc := &service{
		repository: cfg.Repository,
		events:     cfg.Events,
		gameCfg:    cfg.Game,
		locks:      make(map[string]*sync.Mutex),
	}

	if svc.gameCfg.FieldSize == 0 {
		svc.gameCfg.FieldSize = 25
	}
	if svc.gameCfg.ShopStands == 0 {
		svc.gameCfg.ShopStands = 4
	}
	if svc.gameCfg.BossHealInterval == 0 {
		svc.gameCfg.BossHealInterval = 30 * time.Second
	}
	if svc.gameCfg.BossHealFraction == 0 {
		svc.gameCfg.BossHealFraction = 0.1
	}

	if cfg.Roller != nil {
		svc.roller = cfg.Roller
	} else {
		svc.roller = dice.NewRandomRoller()
	}

	if cfg.UUIDGenerator != nil {
		svc.uuidGenerator = cfg.UUIDGenerator
	} else {
		svc.uuidGenerator = uuid.NewGoogleUUIDGenerator()
	}

	if cfg.Logger != nil {
		svc.log = cfg.Logger
	} else {
		svc.log = logrus.StandardLogger()
	}

	if cfg.Rand != nil {
		svc.rng = cfg.Rand
	} else {
		svc.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return svc
}

// roomLock returns the mutex serializing the given room's operations
func (s *service) roomLock(roomID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[roomID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[roomID] = l
	}
	return l
}

func (s *service) dropLock(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, roomID)
}

// emitFunc queues a room event for broadcast once the mutation is stored
type emitFunc func(event string, payload any)

type pendingEvent struct {
	event   string
	payload any
}

// withRoom loads the room, runs fn against it under the room's lock and
// stores the result. fn mutates the room in place and queues events via
// emit; a returned error leaves the stored state untouched. Events are
// broadcast only after the store succeeds, so clients never see deltas
// that were not persisted. When fn empties or finishes the room, it is
// torn down instead of stored.
func (s *service) withRoom(ctx context.Context, roomID string, fn func(room *game.Room, emit emitFunc) error) error {
	l := s.roomLock(roomID)
	l.Lock()
	defer l.Unlock()

	room, err := s.repository.Get(ctx, roomID)
	if err != nil {
		return err
	}

	var pending []pendingEvent
	emit := func(event string, payload any) {
		pending = append(pending, pendingEvent{event: event, payload: payload})
	}
	flush := func() {
		for _, e := range pending {
			s.events.Publish(roomID, e.event, e.payload)
		}
	}

	if err := fn(room, emit); err != nil {
		if apperrors.IsContent(err) {
			// content failures are fatal to the room
			s.log.WithFields(logrus.Fields{
				"room_id": roomID,
				"error":   err.Error(),
			}).Error("tearing down room after content error")
			s.events.Publish(roomID, EventRoomClosed, map[string]any{"reason": err.Error()})
			s.teardown(ctx, roomID)
		}
		return err
	}

	if room.Empty() {
		s.teardown(ctx, roomID)
		flush()
		return nil
	}

	if room.State == game.StateFinished {
		s.teardown(ctx, roomID)
		flush()
		s.events.Publish(roomID, EventGameOver, gameSummary(room))
		return nil
	}

	if err := s.repository.Update(ctx, room); err != nil {
		return err
	}
	flush()
	return nil
}

func (s *service) teardown(ctx context.Context, roomID string) {
	if err := s.repository.Delete(ctx, roomID); err != nil && !apperrors.IsNotFound(err) {
		s.log.WithFields(logrus.Fields{
			"room_id": roomID,
			"error":   err.Error(),
		}).Warn("failed to delete room")
	}
	s.dropLock(roomID)
}

// gameSummary builds the final per-player report broadcast on game over
func gameSummary(room *game.Room) map[string]any {
	players := make([]map[string]any, 0, len(room.Players))
	for _, p := range room.Players {
		entry := map[string]any{
			"uid":      p.UID,
			"username": p.Username,
			"alive":    p.Alive(),
		}
		if p.Character != nil {
			entry["coins"] = p.Character.Coins
			entry["hp"] = p.Character.HP
		}
		players = append(players, entry)
	}
	return map[string]any{
		"level":   room.Level,
		"won":     !room.AllDead(),
		"players": players,
	}
}

// CreateRoom creates a lobby with the creator as its owner
func (s *service) CreateRoom(ctx context.Context, input *CreateRoomInput) (*game.Room, error) {
	if input == nil {
		return nil, apperrors.InvalidArgument("input cannot be nil")
	}
	if strings.TrimSpace(input.UID) == "" {
		return nil, apperrors.InvalidArgument("uid is required")
	}

	room := game.NewRoom(s.uuidGenerator.New())
	if err := room.Join(&game.Player{
		UID:      input.UID,
		Username: input.Username,
		Icon:     input.Icon,
	}); err != nil {
		return nil, err
	}

	if err := s.repository.Create(ctx, room); err != nil {
		return nil, apperrors.Wrap(err, "failed to create room").
			WithMeta("room_id", room.ID)
	}

	s.log.WithFields(logrus.Fields{
		"room_id": room.ID,
		"uid":     input.UID,
	}).Info("room created")

	return room, nil
}

// GetRoom retrieves a room snapshot by ID
func (s *service) GetRoom(ctx context.Context, roomID string) (*game.Room, error) {
	return s.repository.Get(ctx, roomID)
}

// Join adds a player to a lobby
func (s *service) Join(ctx context.Context, roomID string, input *JoinInput) (*game.Room, error) {
	if input == nil {
		return nil, apperrors.InvalidArgument("input cannot be nil")
	}
	if strings.TrimSpace(input.UID) == "" {
		return nil, apperrors.InvalidArgument("uid is required")
	}

	var snapshot *game.Room
	err := s.withRoom(ctx, roomID, func(room *game.Room, emit emitFunc) error {
		p := &game.Player{
			UID:      input.UID,
			Username: input.Username,
			Icon:     input.Icon,
		}
		if err := room.Join(p); err != nil {
			return err
		}

		emit(EventJoiningTheLobby, p)
		snapshot = room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Leave removes a player; an emptied room is torn down
func (s *service) Leave(ctx context.Context, roomID, uid string) error {
	return s.withRoom(ctx, roomID, func(room *game.Room, emit emitFunc) error {
		removed, err := room.Leave(uid)
		if err != nil {
			return err
		}

		emit(EventLeavingTheLobby, map[string]any{
			"msg": removed.Username + " left the room",
			"uid": uid,
		})

		if room.Empty() {
			return nil
		}

		// a departing current-turn holder must not stall the loop
		if room.State == game.StateInProgress && room.Queue == uid {
			room.MoveData = nil
			room.Fight = nil
			s.advanceQueue(room, emit)
		}

		if room.State == game.StateInProgress && room.AllDead() {
			room.State = game.StateFinished
		}

		return nil
	})
}

// SelectCharacter assigns a character archetype to a lobby member
func (s *service) SelectCharacter(ctx context.Context, roomID, uid string, characterID int) error {
	return s.withRoom(ctx, roomID, func(room *game.Room, emit emitFunc) error {
		if room.State != game.StateLobby {
			return apperrors.Validation("characters can only be picked in the lobby")
		}

		p := room.Player(uid)
		if p == nil {
			return apperrors.NotFoundf("player %s is not in the room", uid)
		}

		arch, err := content.ArchetypeByID(characterID)
		if err != nil {
			return err
		}

		// overwrite any prior selection wholesale
		p.CharacterID = &characterID
		p.Character = character.New(arch)

		emit(EventCharacterSelection, map[string]any{
			"uid":          uid,
			"character_id": characterID,
		})
		return nil
	})
}

// Ready marks a lobby member ready
func (s *service) Ready(ctx context.Context, roomID, uid string) error {
	return s.setReady(ctx, roomID, uid, true)
}

// NoReady clears a lobby member's ready flag
func (s *service) NoReady(ctx context.Context, roomID, uid string) error {
	return s.setReady(ctx, roomID, uid, false)
}

func (s *service) setReady(ctx context.Context, roomID, uid string, ready bool) error {
	return s.withRoom(ctx, roomID, func(room *game.Room, emit emitFunc) error {
		if room.State != game.StateLobby {
			return apperrors.Validation("ready toggling is a lobby action")
		}

		p := room.Player(uid)
		if p == nil {
			return apperrors.NotFoundf("player %s is not in the room", uid)
		}
		if ready && p.Character == nil {
			return apperrors.Validation("pick a character before readying up")
		}

		p.Ready = ready

		event := EventReady
		if !ready {
			event = EventNoReady
		}
		emit(event, map[string]any{"uid": uid})
		return nil
	})
}
