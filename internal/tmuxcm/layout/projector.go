package layout

import "fmt"

// WidgetKind names the widget type a projected entry instantiates as.
type WidgetKind string

const (
	KindWindow   WidgetKind = "Window"
	KindNotebook WidgetKind = "Notebook"
	KindVPaned   WidgetKind = "VPaned"
	KindHPaned   WidgetKind = "HPaned"
	KindTerminal WidgetKind = "Terminal"
)

// Geometry mirrors the tmux layout coordinates carried by a projected entry.
type Geometry struct {
	Width, Height int
	X, Y          int
}

// Widget is one entry of a projected layout: a widget name the upper layer
// should instantiate, its kind, its parent's name, and (for leaves) the
// tmux geometry and pane id it wraps.
type Widget struct {
	Name     string
	Kind     WidgetKind
	Parent   string
	Order    int
	Geometry Geometry
	PaneID   string // set only for KindTerminal
}

// WindowLayout pairs a parsed layout tree with the window id it belongs to,
// the unit Project operates over.
type WindowLayout struct {
	WindowID string
	Root     Node
}

// projectState threads the monotonically increasing depth-first order
// counter and the widget name disambiguator through the recursive walk.
type projectState struct {
	order   int
	widgets map[string]Widget
	names   []string
}

// Project converts an ordered list of parsed window layouts into a flat
// mapping of widget name to Widget, ready for an upper layer to instantiate.
//
// Always emits a root "window0" of KindWindow. With more than one window, a
// "notebook0" of KindNotebook is parented by window0 and each window's tree
// is parented by the notebook instead. Vertical nodes become VPaned,
// Horizontal nodes become HPaned; a split with one remaining child (after
// collapsing, see below) degenerates into that child directly. Splits with
// more than two children are reassociated as right-nested splits of the
// same orientation (a | b | c -> VPaned(a, VPaned(b, c))).
func Project(windows []WindowLayout) (map[string]Widget, error) {
	st := &projectState{widgets: make(map[string]Widget)}

	st.emit(Widget{Name: "window0", Kind: KindWindow, Parent: ""})

	windowParent := "window0"
	if len(windows) > 1 {
		st.emit(Widget{Name: "notebook0", Kind: KindNotebook, Parent: "window0"})
		windowParent = "notebook0"
	}

	for i, w := range windows {
		if err := st.walk(w.Root, windowParent, fmt.Sprintf("w%d", i)); err != nil {
			return nil, err
		}
	}

	return st.widgets, nil
}

func (st *projectState) emit(w Widget) {
	w.Order = st.order
	st.order++
	st.widgets[w.Name] = w
	st.names = append(st.names, w.Name)
}

// walk projects a single node, returning nothing: child widgets are
// registered directly into st.widgets keyed by their own computed name.
// namePrefix disambiguates widget names across sibling windows.
func (st *projectState) walk(n Node, parent, namePrefix string) error {
	switch v := n.(type) {
	case Pane:
		name := "terminal" + v.PaneID
		st.emit(Widget{
			Name:     name,
			Kind:     KindTerminal,
			Parent:   parent,
			Geometry: Geometry{Width: v.Width, Height: v.Height, X: v.X, Y: v.Y},
			PaneID:   v.PaneID,
		})
		return nil
	case HorizontalSplit:
		return st.walkSplit(KindHPaned, v.Width, v.Height, v.X, v.Y, v.Children, parent, namePrefix)
	case VerticalSplit:
		return st.walkSplit(KindVPaned, v.Width, v.Height, v.X, v.Y, v.Children, parent, namePrefix)
	default:
		return fmt.Errorf("layout: unknown node type %T", n)
	}
}

// walkSplit handles a single split's children, collapsing a degenerate
// single-child split and right-nesting a split with more than two children.
func (st *projectState) walkSplit(kind WidgetKind, w, h, x, y int, children []Node, parent, namePrefix string) error {
	if len(children) == 1 {
		return st.walk(children[0], parent, namePrefix)
	}

	// a | b | c -> Paned(a, Paned(b, c)): emit this split, walk the first
	// child directly, and recurse on the remainder under a new namePrefix.
	// With exactly two children the recursive call's single-child base case
	// above collapses back to a plain two-pane split.
	name := namePrefix + string(kind)
	st.emit(Widget{Name: name, Kind: kind, Parent: parent, Geometry: Geometry{Width: w, Height: h, X: x, Y: y}})
	if err := st.walk(children[0], name, namePrefix+"0"); err != nil {
		return err
	}
	return st.walkSplit(kind, w, h, x, y, children[1:], name, namePrefix+"1")
}
