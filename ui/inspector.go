package ui

import (
	"fmt"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// AgentView is the inspector's read-only copy of one agent.
type AgentView struct {
	ID           uint32
	Team         int
	Variant      string
	State        string
	Routine      string
	Step         string
	Health       float64
	MaxHealth    float64
	Invulnerable bool
	Failures     int
	MaxFailures  int

	PlanActions int
	PlanTime    float64
	NextAction  string

	Cooldowns []Cooldown
	Ammo      int
	HasAmmo   bool

	TeleportCooldown float64
	Teleports        int
	Fallbacks        int

	Hits   int
	Damage float64
	Downs  int
}

// Cooldown is one running cooldown.
type Cooldown struct {
	Name string
	Left float64
}

func view(data any) *AgentView { return data.(*AgentView) }

// agentSections lays out the inspector.
var agentSections = []SectionDescriptor{
	{
		ID:    "status",
		Title: "Status",
		Fields: []FieldDescriptor{
			{ID: "state", Label: "State", Widget: WidgetText, TextGetter: func(d any) string { return view(d).State }},
			{ID: "routine", Label: "Routine", Widget: WidgetText, TextGetter: func(d any) string {
				v := view(d)
				if v.Routine == "" {
					return "-"
				}
				return v.Routine + "/" + v.Step
			}},
			{ID: "health", Label: "Health", Widget: WidgetHealthBar,
				Getter:    func(d any) float32 { return float32(view(d).Health) },
				RangeFrom: func(d any) FieldRange { return FieldRange{Max: float32(view(d).MaxHealth)} }},
			{ID: "failures", Label: "Failures", Widget: WidgetText, TextGetter: func(d any) string {
				v := view(d)
				return fmt.Sprintf("%d/%d", v.Failures, v.MaxFailures)
			}},
			{ID: "invuln", Label: "Invuln", Widget: WidgetText,
				Visible:    func(d any) bool { return view(d).Invulnerable },
				TextGetter: func(any) string { return "yes" }},
		},
	},
	{
		ID:    "plan",
		Title: "Plan",
		Fields: []FieldDescriptor{
			{ID: "actions", Label: "Actions", Widget: WidgetText, Format: "%.0f",
				Getter: func(d any) float32 { return float32(view(d).PlanActions) }},
			{ID: "time", Label: "Time left", Widget: WidgetText, Format: "%.2fs",
				Getter: func(d any) float32 { return float32(view(d).PlanTime) }},
			{ID: "next", Label: "Next", Widget: WidgetText,
				Visible:    func(d any) bool { return view(d).NextAction != "" },
				TextGetter: func(d any) string { return view(d).NextAction }},
		},
	},
	{
		ID:    "combat",
		Title: "Combat",
		Fields: []FieldDescriptor{
			{ID: "ammo", Label: "Ammo", Widget: WidgetText, Format: "%.0f",
				Visible: func(d any) bool { return view(d).HasAmmo },
				Getter:  func(d any) float32 { return float32(view(d).Ammo) }},
			{ID: "cooldowns", Label: "Cooldowns", Widget: WidgetText, TextGetter: func(d any) string {
				cds := view(d).Cooldowns
				if len(cds) == 0 {
					return "-"
				}
				parts := make([]string, len(cds))
				for i, c := range cds {
					parts[i] = fmt.Sprintf("%s %.1f", c.Name, c.Left)
				}
				return strings.Join(parts, ", ")
			}},
			{ID: "hits", Label: "Hits", Widget: WidgetText, TextGetter: func(d any) string {
				v := view(d)
				return fmt.Sprintf("%d (%.0f dmg)", v.Hits, v.Damage)
			}},
			{ID: "downs", Label: "Downs", Widget: WidgetText, Format: "%.0f",
				Getter: func(d any) float32 { return float32(view(d).Downs) }},
		},
	},
	{
		ID:    "teleport",
		Title: "Teleport",
		Fields: []FieldDescriptor{
			{ID: "cooldown", Label: "Ready in", Widget: WidgetText, Format: "%.1fs",
				Getter: func(d any) float32 { return float32(view(d).TeleportCooldown) }},
			{ID: "count", Label: "Used", Widget: WidgetText, TextGetter: func(d any) string {
				v := view(d)
				return fmt.Sprintf("%d (%d fallback)", v.Teleports, v.Fallbacks)
			}},
		},
	},
}

// Inspector renders the selected agent's panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Width returns the panel width.
func (ins *Inspector) Width() int32 { return ins.width }

// Draw renders the inspector for v and returns the Y below it.
func (ins *Inspector) Draw(v *AgentView) int32 {
	r := ins.renderer
	padding := r.Theme.Padding
	contentWidth := ins.width - padding*2

	// Measure with the same visibility rules the draw pass applies.
	rows := int32(2)
	for _, sd := range agentSections {
		rows++
		for _, fd := range sd.Fields {
			if fd.Visible == nil || fd.Visible(v) {
				rows++
			}
		}
	}
	height := rows*(r.Theme.LineHeight+2) + padding*2
	r.DrawPanel(ins.x, ins.y, ins.width, height)

	y := ins.y + padding
	rl.DrawRectangle(ins.x+padding, y+2, 10, 10, r.Theme.TeamColor(v.Team))
	rl.DrawText(fmt.Sprintf("Agent %d  %s  team %d", v.ID, v.Variant, v.Team), ins.x+padding+16, y, 16, rl.White)
	y += r.Theme.LineHeight + 8

	for _, sd := range agentSections {
		y = r.DrawSection(ins.x+padding, y, sd, v, contentWidth)
	}
	return y
}
