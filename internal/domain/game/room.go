package game

import (
	"time"

	"github.com/dungeonofmasters/dom-server/internal/dice"
	"github.com/dungeonofmasters/dom-server/internal/domain/character"
	"github.com/dungeonofmasters/dom-server/internal/domain/combat"
	"github.com/dungeonofmasters/dom-server/internal/domain/field"
	"github.com/dungeonofmasters/dom-server/internal/domain/grid"
	"github.com/dungeonofmasters/dom-server/internal/domain/item"
	apperrors "github.com/dungeonofmasters/dom-server/internal/errors"
)

// State is the room life-cycle phase
type State string

const (
	// StateLobby accepts joins, character selection and ready-toggling
	StateLobby State = "lobby"

	// StateLoading marks field/shop/enemy generation in progress
	StateLoading State = "loading"

	// StateInProgress means the turn loop is active
	StateInProgress State = "in_progress"

	// StateFinished is terminal: final boss killed or all players dead
	StateFinished State = "finished"
)

// QueueBoss is the queue token for the boss's turn
const QueueBoss = "boss"

// BossTarget is the choice_enemy argument selecting the boss instead of an
// enemy id
const BossTarget = -1

// MoveData is the pending dice roll awaiting consumption by a move. It is
// valid for one move in the turn it was rolled; Consumed guards against
// stale reuse.
type MoveData struct {
	UID      string            `json:"uid"`
	Steps    []dice.TumbleStep `json:"steps"`
	Result   int               `json:"result"`
	Ways     [][]grid.Cell     `json:"ways"`
	Consumed bool              `json:"consumed"`
}

// Fight is the pending fight sub-phase: the acting player and the targets
// in reach. TargetID stays nil until the single candidate is auto-picked or
// choice_enemy resolves the ambiguity.
type Fight struct {
	UID        string `json:"uid"`
	Candidates []int  `json:"candidates"`
	TargetID   *int   `json:"target_id,omitempty"`
}

// Stand is one shop slot; Sold stands keep their item for display but
// cannot be bought again.
type Stand struct {
	Item *item.Item `json:"item,omitempty"`
	Sold bool       `json:"sold"`
}

// Room is the aggregate root of one game session. Everything it references
// is exclusively owned by it; concurrent access is serialized by the room
// service.
type Room struct {
	ID    string `json:"id"`
	State State  `json:"state"`
	Level int    `json:"lvl"`

	// Players in join order; the order fixes the turn sequence and owner
	// succession
	Players []*Player `json:"players"`

	Field   *field.Field    `json:"field,omitempty"`
	Boss    *combat.Boss    `json:"boss,omitempty"`
	Enemies []*combat.Enemy `json:"enemies,omitempty"`
	Shop    []*Stand        `json:"shop,omitempty"`

	// Queue is the turn pointer: a player uid, QueueBoss, or empty
	Queue string `json:"queue"`

	MoveData *MoveData `json:"move_data,omitempty"`
	Fight    *Fight    `json:"fight,omitempty"`

	CreatedAt    time.Time `json:"created_at"`
	LastBossHeal time.Time `json:"last_boss_heal"`
}

// NewRoom creates an empty lobby
func NewRoom(id string) *Room {
	return &Room{
		ID:        id,
		State:     StateLobby,
		Level:     1,
		CreatedAt: time.Now().UTC(),
	}
}

// Join appends a player to the roster. The first joiner becomes owner.
func (r *Room) Join(p *Player) error {
	if r.State != StateLobby {
		return apperrors.Validation("game already in progress")
	}
	if r.Player(p.UID) != nil {
		return apperrors.AlreadyExists("already in the room")
	}

	p.IsOwner = len(r.Players) == 0
	r.Players = append(r.Players, p)
	return nil
}

// Leave removes the player and transfers ownership to the first remaining
// member if the owner left. Returns the removed player.
func (r *Room) Leave(uid string) (*Player, error) {
	idx := -1
	for i, p := range r.Players {
		if p.UID == uid {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, apperrors.NotFoundf("player %s is not in the room", uid)
	}

	removed := r.Players[idx]
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)

	if removed.IsOwner && len(r.Players) > 0 {
		r.Players[0].IsOwner = true
	}

	return removed, nil
}

// Player returns the member with the given uid, or nil
func (r *Room) Player(uid string) *Player {
	for _, p := range r.Players {
		if p.UID == uid {
			return p
		}
	}
	return nil
}

// Owner returns the member holding room authority, or nil for an empty room
func (r *Room) Owner() *Player {
	for _, p := range r.Players {
		if p.IsOwner {
			return p
		}
	}
	return nil
}

// Empty reports whether the roster is empty
func (r *Room) Empty() bool {
	return len(r.Players) == 0
}

// AllReady reports whether every member has readied up. An empty room is
// never ready.
func (r *Room) AllReady() bool {
	if r.Empty() {
		return false
	}
	for _, p := range r.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// AllDead reports whether every member's character is down, which ends the
// game.
func (r *Room) AllDead() bool {
	if r.Empty() {
		return false
	}
	for _, p := range r.Players {
		if p.Alive() {
			return false
		}
	}
	return true
}

// Characters returns the roster's characters in join order; slots of
// players without a selection are nil.
func (r *Room) Characters() []*character.Character {
	chars := make([]*character.Character, len(r.Players))
	for i, p := range r.Players {
		chars[i] = p.Character
	}
	return chars
}

// NextQueue returns the turn token after the current one: the living
// players in join order, then the boss, wrapping back to the first living
// player. Dead players are skipped. An empty string means nobody can act.
func (r *Room) NextQueue() string {
	alive := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		if p.Alive() {
			alive = append(alive, p.UID)
		}
	}
	if len(alive) == 0 {
		return ""
	}

	if r.Queue == QueueBoss || r.Queue == "" {
		return alive[0]
	}

	for i, uid := range alive {
		if uid == r.Queue {
			if i+1 < len(alive) {
				return alive[i+1]
			}
			if r.Boss != nil && r.Boss.Alive() {
				return QueueBoss
			}
			return alive[0]
		}
	}

	// current holder left or died; restart the cycle
	return alive[0]
}

// EnemyByID returns the living enemy with the given id, or nil
func (r *Room) EnemyByID(id int) *combat.Enemy {
	for _, e := range r.Enemies {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// RemoveEnemy drops a killed enemy from the level
func (r *Room) RemoveEnemy(id int) {
	for i, e := range r.Enemies {
		if e.ID == id {
			r.Enemies = append(r.Enemies[:i], r.Enemies[i+1:]...)
			return
		}
	}
}
