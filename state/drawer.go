package state

// Drawer is the navigation drawer's UI state.
type Drawer struct {
	Visible bool `json:"visible"`
}

// DrawerStore is the shared, observable drawer state. The zero state is
// closed.
type DrawerStore struct {
	*Value[Drawer]
}

// NewDrawerStore returns a closed drawer.
func NewDrawerStore() *DrawerStore {
	return &DrawerStore{Value: New(Drawer{})}
}

// Visible reports whether the drawer is open.
func (d *DrawerStore) Visible() bool {
	return d.Get().Visible
}

// Open shows the drawer.
func (d *DrawerStore) Open() {
	d.Set(Drawer{Visible: true})
}

// Close hides the drawer.
func (d *DrawerStore) Close() {
	d.Set(Drawer{Visible: false})
}

// Toggle flips visibility and returns the new state.
func (d *DrawerStore) Toggle() bool {
	return d.Update(func(cur Drawer) Drawer {
		return Drawer{Visible: !cur.Visible}
	}).Visible
}

// Apply runs a named drawer action ("open", "close" or "toggle"). It
// reports false for unknown actions.
func (d *DrawerStore) Apply(action string) bool {
	switch action {
	case "open":
		d.Open()
	case "close":
		d.Close()
	case "toggle":
		d.Toggle()
	default:
		return false
	}
	return true
}
