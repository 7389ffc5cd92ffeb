package behavior

import "sort"

// Cooldown names.
const (
	CooldownTeleport    = "teleport"
	CooldownEvasionDash = "evasion_dash"
	CooldownRetreat     = "retreat"
	CooldownMelee       = "melee"
	CooldownReload      = "reload"
	CooldownDodge       = "dodge"
	CooldownDashBehind  = "dash_behind"
	CooldownFeint       = "feint"
	CooldownCounter     = "counter"
)

// Cooldowns holds named countdowns in seconds.
type Cooldowns struct {
	left map[string]float64
}

// NewCooldowns creates an empty set. Unknown names are always ready.
func NewCooldowns() *Cooldowns {
	return &Cooldowns{left: make(map[string]float64)}
}

// Arm starts (or restarts) a countdown.
func (c *Cooldowns) Arm(name string, d float64) {
	if d <= 0 {
		delete(c.left, name)
		return
	}
	c.left[name] = d
}

// Ready reports whether the named countdown has elapsed.
func (c *Cooldowns) Ready(name string) bool {
	return c.left[name] <= 0
}

// Left returns the seconds remaining on a countdown.
func (c *Cooldowns) Left(name string) float64 {
	return c.left[name]
}

// Advance counts every countdown down by dt.
func (c *Cooldowns) Advance(dt float64) {
	for name, left := range c.left {
		left -= dt
		if left <= 0 {
			delete(c.left, name)
			continue
		}
		c.left[name] = left
	}
}

// Active returns the names of running countdowns in sorted order.
func (c *Cooldowns) Active() []string {
	names := make([]string, 0, len(c.left))
	for name := range c.left {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
