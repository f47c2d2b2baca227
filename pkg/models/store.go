package models

// StoreDocument is the full contents of the structured store file. All four
// collections are persisted together in a single JSON document and mutated
// via whole-document read-modify-write.
type StoreDocument struct {
	Tasks         []Task         `json:"tasks"`
	Agents        []Agent        `json:"agents"`
	Activities    []Activity     `json:"activities"`
	Notifications []Notification `json:"notifications"`
}

// NewStoreDocument returns an empty but valid document, the shape a fresh
// installation starts from when no store file exists yet.
func NewStoreDocument() *StoreDocument {
	return &StoreDocument{
		Tasks:         []Task{},
		Agents:        []Agent{},
		Activities:    []Activity{},
		Notifications: []Notification{},
	}
}

// FindTask returns a pointer into the document's task slice, or nil if no
// task with the given ID exists.
func (d *StoreDocument) FindTask(id string) *Task {
	for i := range d.Tasks {
		if d.Tasks[i].ID == id {
			return &d.Tasks[i]
		}
	}
	return nil
}

// FindAgent returns a pointer into the document's agent slice, or nil if no
// agent with the given ID exists.
func (d *StoreDocument) FindAgent(id string) *Agent {
	for i := range d.Agents {
		if d.Agents[i].ID == id {
			return &d.Agents[i]
		}
	}
	return nil
}

// FindNotification returns a pointer into the document's notification slice,
// or nil if no notification with the given ID exists.
func (d *StoreDocument) FindNotification(id string) *Notification {
	for i := range d.Notifications {
		if d.Notifications[i].ID == id {
			return &d.Notifications[i]
		}
	}
	return nil
}

// PrependActivity inserts the activity at the head of the log so the most
// recent entry is always first.
func (d *StoreDocument) PrependActivity(a Activity) {
	d.Activities = append([]Activity{a}, d.Activities...)
}
