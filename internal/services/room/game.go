package room

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dungeonofmasters/dom-server/internal/content"
	"github.com/dungeonofmasters/dom-server/internal/dice"
	"github.com/dungeonofmasters/dom-server/internal/domain/character"
	"github.com/dungeonofmasters/dom-server/internal/domain/combat"
	"github.com/dungeonofmasters/dom-server/internal/domain/field"
	"github.com/dungeonofmasters/dom-server/internal/domain/game"
	"github.com/dungeonofmasters/dom-server/internal/domain/grid"
	apperrors "github.com/dungeonofmasters/dom-server/internal/errors"
)

// finalLevel is the dungeon's depth; killing this level's boss wins the
// game
const finalLevel = 5

// bossAttackRange is the boss's counter-attack reach
const bossAttackRange = 1

// RollReport is the outcome of a movement dice roll
type RollReport struct {
	UID      string            `json:"uid"`
	Movement []dice.TumbleStep `json:"movement"`
	Result   int               `json:"result"`
	Cells    []grid.Cell       `json:"cells"`
}

// FightReport is the outcome of one fight-die exchange
type FightReport struct {
	UID      string `json:"uid"`
	Roll     int    `json:"roll"`
	Damage   int    `json:"damage"`
	TargetID int    `json:"target_id"`
	TargetHP int    `json:"target_hp"`
	Counter  int    `json:"counter"`
	Killed   bool   `json:"killed"`
	Reward   int    `json:"reward"`
}

// StartGame begins the session; owner only, all members ready
func (s *service) StartGame(ctx context.Context, roomID, uid string) (*game.Room, error) {
	var snapshot *game.Room
	err := s.withRoom(ctx, roomID, func(room *game.Room, emit emitFunc) error {
		if room.State != game.StateLobby {
			return apperrors.Validation("game already started")
		}

		p := room.Player(uid)
		if p == nil {
			return apperrors.NotFoundf("player %s is not in the room", uid)
		}
		if !p.IsOwner {
			return apperrors.PermissionDenied("only the owner can start the game")
		}
		if !room.AllReady() {
			return apperrors.Validation("not everyone is ready")
		}

		room.State = game.StateLoading
		emit(EventLoadingGame, nil)

		if err := s.setupLevel(room); err != nil {
			return err
		}

		room.State = game.StateInProgress
		room.Queue = room.NextQueue()

		emit(EventStartGame, room)
		emit(EventSetQueue, map[string]any{"queue": room.Queue})

		s.log.WithFields(logrus.Fields{
			"room_id": roomID,
			"level":   room.Level,
			"boss":    room.Boss.Flavor.Name,
		}).Info("game started")

		snapshot = room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// setupLevel generates the field, shop, enemy roster and boss for the
// room's current level and puts every character on the entry cell.
func (s *service) setupLevel(room *game.Room) error {
	gen := field.NewGenerator(s.rng)
	f, err := gen.Generate(s.gameCfg.FieldSize, s.gameCfg.FieldSize)
	if err != nil {
		return err
	}
	room.Field = f

	catalog := content.ItemsForLevel(room.Level)
	if len(catalog) == 0 {
		return apperrors.Contentf("no items for level %d", room.Level)
	}
	shop := make([]*game.Stand, 0, s.gameCfg.ShopStands)
	perm := s.rng.Perm(len(catalog))
	for i := 0; i < s.gameCfg.ShopStands; i++ {
		shop = append(shop, &game.Stand{Item: catalog[perm[i%len(perm)]]})
	}
	room.Shop = shop

	// boss guards the deepest corner of the maze
	cells := f.WalkableCells()
	boss := combat.NewBoss(content.FlavorForLevel(room.Level, s.rng))
	if idx := grid.Farthest(f.Entry, cells); idx >= 0 {
		boss.Pos = cells[idx]
	}
	room.Boss = boss

	occupied := map[grid.Cell]bool{f.Entry: true, f.Exit: true, boss.Pos: true}
	count := content.EnemyCountForLevel(room.Level)
	enemies := make([]*combat.Enemy, 0, count)
	for _, ci := range s.rng.Perm(len(cells)) {
		if len(enemies) == count {
			break
		}
		c := cells[ci]
		if occupied[c] {
			continue
		}
		e := content.SpawnEnemy(len(enemies)+1, room.Level, s.rng)
		e.Pos = c
		occupied[c] = true
		enemies = append(enemies, &e)
	}
	room.Enemies = enemies

	for _, p := range room.Players {
		if p.Character != nil {
			p.Character.Pos = f.Entry
		}
	}

	room.MoveData = nil
	room.Fight = nil
	room.LastBossHeal = time.Now().UTC()
	return nil
}

// RollDice tumbles the movement die for the acting player
func (s *service) RollDice(ctx context.Context, roomID, uid string) (*RollReport, error) {
	var report *RollReport
	err := s.withRoom(ctx, roomID, func(room *game.Room, emit emitFunc) error {
		char, err := actingCharacter(room, uid)
		if err != nil {
			return err
		}
		if room.Fight != nil {
			return apperrors.Validation("resolve the fight first")
		}
		if md := room.MoveData; md != nil && md.UID == uid && !md.Consumed {
			return apperrors.Validation("dice already rolled this turn")
		}

		cube, err := s.roller.RollCube(char.MoveSpeed())
		if err != nil {
			return err
		}

		ways := field.Ways(room.Field, char.Pos, cube.Total)
		room.MoveData = &game.MoveData{
			UID:    uid,
			Steps:  cube.Steps,
			Result: cube.Total,
			Ways:   ways,
		}

		report = &RollReport{
			UID:      uid,
			Movement: cube.Steps,
			Result:   cube.Total,
			Cells:    field.WayCells(ways),
		}
		emit(EventRollingTheDice, report)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Move walks the acting player to a cell reachable from the pending roll
func (s *service) Move(ctx context.Context, roomID string, uid string, target grid.Cell) (*game.Room, error) {
	var snapshot *game.Room
	err := s.withRoom(ctx, roomID, func(room *game.Room, emit emitFunc) error {
		char, err := actingCharacter(room, uid)
		if err != nil {
			return err
		}
		if room.Fight != nil {
			return apperrors.Validation("resolve the fight first")
		}

		md := room.MoveData
		if md == nil || md.UID != uid {
			return apperrors.Validation("roll the dice before moving")
		}
		if md.Consumed {
			return apperrors.Concurrency("dice roll already spent this turn")
		}
		if !cellReachable(md.Ways, target) {
			return apperrors.Validationf("cell (%d,%d) is out of reach", target.Row, target.Col)
		}

		md.Consumed = true
		char.Pos = target
		snapshot = room

		emit(EventPlayerMoving, map[string]any{
			"player": room.Player(uid),
			"pos":    target,
		})

		// stepping on the exit after the boss is down advances the level
		if target == room.Field.Exit && room.Boss != nil && !room.Boss.Alive() {
			return s.advanceLevel(room, emit)
		}

		if candidates := fightCandidates(room, char.Pos, char.AttackRange()); len(candidates) > 0 {
			room.Fight = &game.Fight{UID: uid, Candidates: candidates}
			if len(candidates) == 1 {
				room.Fight.TargetID = &candidates[0]
			}
			return nil
		}

		s.advanceQueue(room, emit)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// advanceLevel regenerates everything for the next floor
func (s *service) advanceLevel(room *game.Room, emit emitFunc) error {
	room.Level++
	room.State = game.StateLoading
	emit(EventLoadingGame, nil)

	if err := s.setupLevel(room); err != nil {
		return err
	}

	room.State = game.StateInProgress
	// a fresh floor restarts the turn cycle
	room.Queue = ""
	room.Queue = room.NextQueue()
	emit(EventStartGame, room)
	emit(EventSetQueue, map[string]any{"queue": room.Queue})

	s.log.WithFields(logrus.Fields{
		"room_id": room.ID,
		"level":   room.Level,
	}).Info("level advanced")
	return nil
}

// ChoiceEnemy resolves an ambiguous fight target
func (s *service) ChoiceEnemy(ctx context.Context, roomID, uid string, targetID int) error {
	return s.withRoom(ctx, roomID, func(room *game.Room, _ emitFunc) error {
		f := room.Fight
		if f == nil || f.UID != uid {
			return apperrors.Validation("no fight to resolve")
		}
		for i, id := range f.Candidates {
			if id == targetID {
				f.TargetID = &f.Candidates[i]
				return nil
			}
		}
		return apperrors.Validationf("target %d is not in reach", targetID)
	})
}

// RollFightDice resolves the pending fight exchange: the attacker deals
// damage first; a surviving defender counters per its policy when the
// attacker stands within its reach.
func (s *service) RollFightDice(ctx context.Context, roomID, uid string) (*FightReport, error) {
	var report *FightReport
	err := s.withRoom(ctx, roomID, func(room *game.Room, emit emitFunc) error {
		char, err := actingCharacter(room, uid)
		if err != nil {
			return err
		}

		f := room.Fight
		if f == nil || f.UID != uid {
			return apperrors.Validation("no fight to resolve")
		}
		if f.TargetID == nil {
			return apperrors.Validation("choose a target first")
		}

		roll, err := s.roller.Roll(1, 6, 0)
		if err != nil {
			return err
		}
		damage := char.Damage() + roll.Total

		report = &FightReport{
			UID:      uid,
			Roll:     roll.Total,
			Damage:   damage,
			TargetID: *f.TargetID,
		}

		if *f.TargetID == game.BossTarget {
			s.resolveBossFight(room, char, damage, report)
		} else {
			if err := s.resolveEnemyFight(room, char, *f.TargetID, damage, report); err != nil {
				return err
			}
		}

		if damage > 0 && char.LifeAbduction() > 0 {
			char.Heal(char.LifeAbduction())
		}

		emit(EventRollingTheFightDice, report)

		room.Fight = nil
		if room.State == game.StateFinished {
			return nil
		}
		if room.AllDead() {
			room.State = game.StateFinished
			return nil
		}

		s.advanceQueue(room, emit)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *service) resolveBossFight(room *game.Room, char *character.Character, damage int, report *FightReport) {
	boss := room.Boss
	boss.OnHit(damage)
	report.TargetHP = boss.HP

	if !boss.Alive() {
		report.Killed = true
		if room.Level >= finalLevel {
			room.State = game.StateFinished
		}
		return
	}

	if boss.Flavor.Counter.Allows(char.Archetype.Style) &&
		grid.Manhattan(char.Pos, boss.Pos) <= bossAttackRange {
		report.Counter = char.OnHit(boss.Flavor.Damage)
	}
}

func (s *service) resolveEnemyFight(room *game.Room, char *character.Character, targetID, damage int, report *FightReport) error {
	enemy := room.EnemyByID(targetID)
	if enemy == nil {
		return apperrors.Concurrency("target enemy is gone")
	}

	enemy.OnHit(damage)
	report.TargetHP = enemy.HP

	if !enemy.Alive() {
		report.Killed = true
		report.Reward = enemy.Reward
		char.Coins += enemy.Reward
		room.RemoveEnemy(targetID)
		return nil
	}

	if enemy.Counter.Allows(char.Archetype.Style) &&
		grid.Manhattan(char.Pos, enemy.Pos) <= enemy.AttackRange {
		report.Counter = char.OnHit(enemy.Damage)
	}
	return nil
}

// PassMove forfeits the rest of the acting player's turn
func (s *service) PassMove(ctx context.Context, roomID, uid string) error {
	return s.withRoom(ctx, roomID, func(room *game.Room, emit emitFunc) error {
		if room.State != game.StateInProgress {
			return apperrors.Validation("game is not in progress")
		}
		if room.Queue != uid {
			return apperrors.Validation("not your turn")
		}

		room.Fight = nil
		s.advanceQueue(room, emit)
		return nil
	})
}

// advanceQueue passes the turn and runs the boss's turn when it comes up
func (s *service) advanceQueue(room *game.Room, emit emitFunc) {
	room.MoveData = nil
	room.Fight = nil

	room.Queue = room.NextQueue()
	emit(EventSetQueue, map[string]any{"queue": room.Queue})

	if room.Queue != game.QueueBoss {
		return
	}

	s.bossTurn(room, emit)

	if room.AllDead() {
		room.State = game.StateFinished
		return
	}

	room.Queue = room.NextQueue()
	emit(EventSetQueue, map[string]any{"queue": room.Queue})
}

// bossTurn executes one randomly picked skill against the roster
func (s *service) bossTurn(room *game.Room, emit emitFunc) {
	boss := room.Boss
	if boss == nil || !boss.Alive() {
		return
	}

	policy := combat.NewRandomSkillPolicy(s.rng)
	report := boss.ExecuteSkill(policy.Next(boss), room.Field.Size(), room.Characters(), s.rng)
	emit(EventBossSkill, report)
}

// OnTick runs time-based rules across all rooms: an alive boss slowly
// regenerates while a level drags on. Rooms tick independently.
func (s *service) OnTick(ctx context.Context, now time.Time) error {
	list, err := s.repository.List(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, r := range list {
		roomID := r.ID
		g.Go(func() error {
			return s.withRoom(ctx, roomID, func(room *game.Room, emit emitFunc) error {
				if room.State != game.StateInProgress {
					return nil
				}
				boss := room.Boss
				if boss == nil || !boss.Alive() {
					return nil
				}
				if now.Sub(room.LastBossHeal) < s.gameCfg.BossHealInterval {
					return nil
				}

				amount := int(float64(boss.Flavor.BaseHP) * s.gameCfg.BossHealFraction)
				if amount < 1 {
					amount = 1
				}
				boss.Heal(amount)
				room.LastBossHeal = now

				emit(EventBossHeal, map[string]any{
					"hp":     boss.HP,
					"healed": amount,
				})
				return nil
			})
		})
	}
	return g.Wait()
}

// actingCharacter validates the common turn preconditions and returns the
// acting player's character.
func actingCharacter(room *game.Room, uid string) (*character.Character, error) {
	if room.State != game.StateInProgress {
		return nil, apperrors.Validation("game is not in progress")
	}
	if room.Queue != uid {
		return nil, apperrors.Validation("not your turn")
	}

	p := room.Player(uid)
	if p == nil {
		return nil, apperrors.NotFoundf("player %s is not in the room", uid)
	}
	if !p.Alive() {
		return nil, apperrors.Validation("dead characters cannot act")
	}
	return p.Character, nil
}

// fightCandidates lists the ids of enemies, and the boss, within the
// character's attack range of the given cell.
func fightCandidates(room *game.Room, pos grid.Cell, reach int) []int {
	var out []int
	for _, e := range room.Enemies {
		if e.Alive() && grid.Manhattan(pos, e.Pos) <= reach {
			out = append(out, e.ID)
		}
	}
	if room.Boss != nil && room.Boss.Alive() && grid.Manhattan(pos, room.Boss.Pos) <= reach {
		out = append(out, game.BossTarget)
	}
	return out
}

func cellReachable(ways [][]grid.Cell, target grid.Cell) bool {
	for _, c := range field.WayCells(ways) {
		if c == target {
			return true
		}
	}
	return false
}
