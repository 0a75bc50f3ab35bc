package support

import (
	"github.com/annel0/block-engine/internal/block"
	"github.com/annel0/block-engine/internal/logging"
	"github.com/annel0/block-engine/internal/vec"
)

// BlockChangedEvent уведомление об изменении блока в позиции
type BlockChangedEvent struct {
	Position vec.Vec3
	Old      *block.Block
	New      *block.Block
}

// Controller реагирует на изменения блоков: перепроверяет до шести соседей
// и разрушает потерявших опору. Сам изменённый блок не перепроверяется.
type Controller struct {
	world  World
	rules  *Registry
	sender EventSender
	logger *logging.Logger
}

func NewController(world World, rules *Registry, sender EventSender, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.GetSupportLogger()
	}
	return &Controller{world: world, rules: rules, sender: sender, logger: logger}
}

// Rules возвращает набор правил контроллера
func (c *Controller) Rules() *Registry { return c.rules }

// OnBlockChanged проверяет соседей позиции. Для каждого соседа срабатывает
// не более одного правила: первое, решившее убрать блок. Возвращает число
// соседей, для которых принято решение.
func (c *Controller) OnBlockChanged(ev BlockChangedEvent) int {
	affected := 0
	for _, side := range vec.AllSides {
		neighbor := ev.Position.Side(side)
		if !c.world.IsRelevant(neighbor) {
			continue
		}
		facing := side.Reverse()
		for _, rule := range c.rules.rules {
			removal := rule.ShouldBeRemovedDueToChange(neighbor, facing)
			if removal == RemoveNone {
				continue
			}
			affected++
			c.rules.observer.SupportLost(rule.Name(), removal)
			if removal == RemoveImmediately {
				c.logger.Debug("Блок %s в %s потерял опору (правило %s)", c.world.BlockAt(neighbor), neighbor, rule.Name())
				c.sender.SendDestroy(c.destroyEvent(neighbor, rule))
			}
			break
		}
	}
	return affected
}

func (c *Controller) destroyEvent(pos vec.Vec3, rule Rule) DestroyEvent {
	ev := DestroyEvent{Cause: CauseSupportRemoved, Position: pos, Rule: rule.Name()}
	if ent, ok := c.world.BlockEntityAt(pos); ok {
		ev.Entity = ent.ID
	}
	return ev
}

// ValidatePlacement проверяет ещё не записанный пакет установки
func (c *Controller) ValidatePlacement(batch Overrides) error {
	return c.rules.ValidatePlacement(batch)
}
