package workspace

import "fmt"

// AttemptState is a step of a category deletion as the user walks through it.
type AttemptState string

const (
	StateIdle               AttemptState = "idle"
	StateModeSelected       AttemptState = "delete_mode_selected"
	StateDeleteAll          AttemptState = "delete_all"
	StateMoveTargetSelected AttemptState = "move_target_selected"
	StateCommitted          AttemptState = "committed"
)

// DeletionAttempt drives one category deletion from the first click to the
// commit. It is not safe for concurrent use.
type DeletionAttempt struct {
	co         *Coordinator
	categoryID string
	state      AttemptState
	target     string
	selected   []string
}

// Begin starts a deletion attempt for categoryID in StateIdle.
func (co *Coordinator) Begin(categoryID string) (*DeletionAttempt, error) {
	co.c.st.mu.RLock()
	ok := co.c.st.hasCategory(co.c.st.resolve(categoryID))
	co.c.st.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{Kind: "category", ID: categoryID}
	}
	return &DeletionAttempt{co: co, categoryID: categoryID, state: StateIdle}, nil
}

// State returns the current step.
func (a *DeletionAttempt) State() AttemptState { return a.state }

// MoveAvailable reports whether move mode may be chosen.
func (a *DeletionAttempt) MoveAvailable() bool { return a.co.MoveAvailable(a.categoryID) }

// Open shows the mode choice.
func (a *DeletionAttempt) Open() error {
	if err := a.expect(StateIdle); err != nil {
		return err
	}
	a.state = StateModeSelected
	return nil
}

// ChooseDeleteAll picks the delete_all mode.
func (a *DeletionAttempt) ChooseDeleteAll() error {
	if err := a.expect(StateModeSelected, StateMoveTargetSelected); err != nil {
		return err
	}
	a.target, a.selected = "", nil
	a.state = StateDeleteAll
	return nil
}

// SelectTarget picks move mode with the given target; an empty target clears
// it and returns to the mode choice.
func (a *DeletionAttempt) SelectTarget(categoryID string) error {
	if err := a.expect(StateModeSelected, StateMoveTargetSelected, StateDeleteAll); err != nil {
		return err
	}
	if categoryID == "" {
		return a.ClearTarget()
	}
	if !a.MoveAvailable() {
		return invalid("mode", "move is unavailable when deleting the only category")
	}
	a.target = categoryID
	a.state = StateMoveTargetSelected
	return nil
}

// ClearTarget returns from move_target_selected to the mode choice.
func (a *DeletionAttempt) ClearTarget() error {
	if a.state == StateModeSelected {
		return nil
	}
	if err := a.expect(StateMoveTargetSelected); err != nil {
		return err
	}
	a.target, a.selected = "", nil
	a.state = StateModeSelected
	return nil
}

// Select restricts the move to the given notes; nil moves all of them.
func (a *DeletionAttempt) Select(noteIDs []string) error {
	if err := a.expect(StateMoveTargetSelected); err != nil {
		return err
	}
	a.selected = noteIDs
	return nil
}

// Commit runs the deletion. A rejected request leaves the attempt where it was.
func (a *DeletionAttempt) Commit() (*Pending, error) {
	req := DeleteCategoryRequest{CategoryID: a.categoryID}
	switch a.state {
	case StateDeleteAll:
		req.Mode = ModeDeleteAll
	case StateMoveTargetSelected:
		req.Mode = ModeMove
		req.TargetCategoryID = a.target
		req.SelectedNoteIDs = a.selected
	default:
		return nil, a.transitionErr()
	}

	p := a.co.Delete(req)
	select {
	case <-p.Done():
		// only local rejections resolve before returning
		if p.err != nil && !isPersistence(p.err) {
			return nil, p.err
		}
	default:
	}
	a.state = StateCommitted
	return p, nil
}

// Cancel abandons the attempt unless it was already committed.
func (a *DeletionAttempt) Cancel() error {
	if a.state == StateCommitted {
		return a.transitionErr()
	}
	a.state = StateIdle
	a.target, a.selected = "", nil
	return nil
}

func (a *DeletionAttempt) expect(states ...AttemptState) error {
	for _, s := range states {
		if a.state == s {
			return nil
		}
	}
	return a.transitionErr()
}

func (a *DeletionAttempt) transitionErr() error {
	return invalid("state", fmt.Sprintf("action not allowed in state %s", a.state))
}
