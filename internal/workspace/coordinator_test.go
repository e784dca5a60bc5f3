package workspace

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinator_MoveSelectedScenario(t *testing.T) {
	fp := workHome()
	s := newTestSession(t, fp)

	p := s.Categories().Delete(DeleteCategoryRequest{
		CategoryID:       "c1",
		Mode:             ModeMove,
		TargetCategoryID: "c2",
		SelectedNoteIDs:  []string{"n1", "n2"},
	})

	// local state is committed before persistence resolves
	notes, cats := s.Snapshot()
	assert.Equal(t, []string{"c2"}, categoryIDs(cats))
	require.Len(t, notes, 3)
	for _, n := range notes {
		assert.Equal(t, "c2", n.CategoryID, "note %s", n.ID)
	}
	assert.Equal(t, []string{"n1", "n2", "n3"}, ids(notes))

	id, err := wait(t, p)
	require.NoError(t, err)
	assert.Equal(t, "c1", id)
	assert.Equal(t, []string{"BulkReassignNotes:n1,n2->c2", "DeleteCategory:c1"}, fp.Calls())
}

func TestCoordinator_MoveAllWhenSelectionNil(t *testing.T) {
	fp := workHome()
	s := newTestSession(t, fp)

	_, err := wait(t, s.Categories().Delete(DeleteCategoryRequest{
		CategoryID:       "c1",
		Mode:             ModeMove,
		TargetCategoryID: "c2",
	}))
	require.NoError(t, err)

	for _, n := range s.Notes().List() {
		assert.Equal(t, "c2", n.CategoryID)
	}
	assert.Empty(t, s.Notes().Orphans())
}

func TestCoordinator_DeleteAll(t *testing.T) {
	fp := workHome()
	s := newTestSession(t, fp)

	p := s.Categories().Delete(DeleteCategoryRequest{CategoryID: "c1", Mode: ModeDeleteAll})

	notes, cats := s.Snapshot()
	assert.Equal(t, []string{"n3"}, ids(notes))
	assert.Equal(t, []string{"c2"}, categoryIDs(cats))

	_, err := wait(t, p)
	require.NoError(t, err)

	calls := fp.Calls()
	require.Len(t, calls, 3)
	assert.ElementsMatch(t, []string{"DeleteNote:n1", "DeleteNote:n2"}, calls[:2])
	assert.Equal(t, "DeleteCategory:c1", calls[2], "category goes last")
}

func TestCoordinator_DeleteAllSoleCategory(t *testing.T) {
	fp := &fakePersistence{
		cats:  []Category{{ID: "c1", Name: "Only"}},
		notes: []Note{{ID: "n1", CategoryID: "c1"}, {ID: "n2"}},
	}
	s := newTestSession(t, fp)

	assert.False(t, s.Coordinator().MoveAvailable("c1"))

	_, err := wait(t, s.Categories().Delete(DeleteCategoryRequest{CategoryID: "c1", Mode: ModeDeleteAll}))
	require.NoError(t, err)
	assert.Equal(t, []string{"n2"}, ids(s.Notes().List()))
	assert.Empty(t, s.Categories().List())
}

func TestCoordinator_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		fixture func() *fakePersistence
		req     DeleteCategoryRequest
		wantErr error
	}{
		{
			name:    "move without target",
			fixture: workHome,
			req:     DeleteCategoryRequest{CategoryID: "c1", Mode: ModeMove},
			wantErr: ErrValidation,
		},
		{
			name:    "move with blank target",
			fixture: workHome,
			req:     DeleteCategoryRequest{CategoryID: "c1", Mode: ModeMove, TargetCategoryID: "   "},
			wantErr: ErrValidation,
		},
		{
			name:    "move onto itself",
			fixture: workHome,
			req:     DeleteCategoryRequest{CategoryID: "c1", Mode: ModeMove, TargetCategoryID: "c1"},
			wantErr: ErrValidation,
		},
		{
			name:    "move to unknown category",
			fixture: workHome,
			req:     DeleteCategoryRequest{CategoryID: "c1", Mode: ModeMove, TargetCategoryID: "c9"},
			wantErr: ErrValidation,
		},
		{
			name:    "move with empty selection",
			fixture: workHome,
			req: DeleteCategoryRequest{
				CategoryID: "c1", Mode: ModeMove, TargetCategoryID: "c2", SelectedNoteIDs: []string{},
			},
			wantErr: ErrValidation,
		},
		{
			name: "move from sole category",
			fixture: func() *fakePersistence {
				return &fakePersistence{cats: []Category{{ID: "c1"}}, notes: []Note{{ID: "n1", CategoryID: "c1"}}}
			},
			req:     DeleteCategoryRequest{CategoryID: "c1", Mode: ModeMove, TargetCategoryID: "c1"},
			wantErr: ErrValidation,
		},
		{
			name:    "unknown mode",
			fixture: workHome,
			req:     DeleteCategoryRequest{CategoryID: "c1", Mode: "archive"},
			wantErr: ErrValidation,
		},
		{
			name:    "unknown category",
			fixture: workHome,
			req:     DeleteCategoryRequest{CategoryID: "c9", Mode: ModeDeleteAll},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := tt.fixture()
			s := newTestSession(t, fp)
			beforeNotes, beforeCats := s.Snapshot()

			_, err := wait(t, s.Categories().Delete(tt.req))
			require.ErrorIs(t, err, tt.wantErr)

			afterNotes, afterCats := s.Snapshot()
			assert.Equal(t, beforeNotes, afterNotes, "no mutation on rejection")
			assert.Equal(t, beforeCats, afterCats)
			assert.Empty(t, fp.Calls())
		})
	}
}

func TestCoordinator_SelectiveMoveLeavesOrphans(t *testing.T) {
	fp := workHome()
	s := newTestSession(t, fp)

	_, err := wait(t, s.Categories().Delete(DeleteCategoryRequest{
		CategoryID:       "c1",
		Mode:             ModeMove,
		TargetCategoryID: "c2",
		SelectedNoteIDs:  []string{"n1"},
	}))
	require.NoError(t, err)

	n1, _ := s.Notes().Get("n1")
	assert.Equal(t, "c2", n1.CategoryID)

	orphans := s.Notes().Orphans()
	require.Len(t, orphans, 1)
	assert.Equal(t, "n2", orphans[0].ID)
	assert.Equal(t, "c1", orphans[0].CategoryID)

	// the caller resolves the rest with a second action
	_, err = wait(t, s.Notes().MoveNotes([]string{"n2"}, "c2"))
	require.NoError(t, err)
	assert.Empty(t, s.Notes().Orphans())
}

func TestCoordinator_ResetsFilter(t *testing.T) {
	s := newTestSession(t, workHome())
	require.NoError(t, s.Notes().SetFilter("c1"))
	assert.Len(t, s.Notes().Visible(), 2)

	sub, cancel := s.Bus().Subscribe()
	defer cancel()

	_, err := wait(t, s.Categories().Delete(DeleteCategoryRequest{CategoryID: "c1", Mode: ModeDeleteAll}))
	require.NoError(t, err)

	assert.Equal(t, "", s.Notes().Filter())
	assert.Len(t, s.Notes().Visible(), 1)
	assert.Contains(t, eventTypes(drain(sub)), EventFilterReset)
}

func TestCoordinator_KeepsUnrelatedFilter(t *testing.T) {
	s := newTestSession(t, workHome())
	require.NoError(t, s.Notes().SetFilter("c2"))

	_, err := wait(t, s.Categories().Delete(DeleteCategoryRequest{CategoryID: "c1", Mode: ModeDeleteAll}))
	require.NoError(t, err)
	assert.Equal(t, "c2", s.Notes().Filter())
}

func TestCoordinator_ReadersNeverSeeHalfDeletion(t *testing.T) {
	fp := workHome()
	s := newTestSession(t, fp)

	var (
		stop      atomic.Bool
		wg        sync.WaitGroup
		violation atomic.Value
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for !stop.Load() {
			notes, cats := s.Snapshot()
			live := make(map[string]bool, len(cats))
			for _, c := range cats {
				live[c.ID] = true
			}
			for _, n := range notes {
				if n.CategoryID != "" && !live[n.CategoryID] {
					violation.Store("note " + n.ID + " references missing " + n.CategoryID)
				}
				if n.CategoryID == "c2" && live["c1"] && (n.ID == "n1" || n.ID == "n2") {
					violation.Store("note " + n.ID + " moved while c1 still exists")
				}
			}
		}
	}()

	_, err := wait(t, s.Categories().Delete(DeleteCategoryRequest{
		CategoryID: "c1", Mode: ModeMove, TargetCategoryID: "c2",
	}))
	stop.Store(true)
	wg.Wait()

	require.NoError(t, err)
	assert.Nil(t, violation.Load())
}

func TestCoordinator_MoveReassignFailureRevertsAll(t *testing.T) {
	fp := workHome()
	fp.bulkHook = func([]string, string) error { return errBoom }
	s := newTestSession(t, fp)
	before, beforeCats := s.Snapshot()

	sub, cancel := s.Bus().Subscribe()
	defer cancel()

	_, err := wait(t, s.Categories().Delete(DeleteCategoryRequest{
		CategoryID: "c1", Mode: ModeMove, TargetCategoryID: "c2",
	}))
	require.ErrorIs(t, err, ErrPersistence)
	require.ErrorIs(t, err, errBoom)

	after, afterCats := s.Snapshot()
	assert.Equal(t, beforeCats, afterCats, "category restored at its position")
	assert.Equal(t, before, after, "notes restored")
	assert.Contains(t, eventTypes(drain(sub)), EventPersistenceFailed)
	assert.NotContains(t, fp.Calls(), "DeleteCategory:c1", "category delete must not run after a failed reassign")
}

func TestCoordinator_MoveCategoryDeleteFailureKeepsMovedNotes(t *testing.T) {
	fp := workHome()
	fp.deleteCategoryHook = func(string) error { return errBoom }
	s := newTestSession(t, fp)

	_, err := wait(t, s.Categories().Delete(DeleteCategoryRequest{
		CategoryID: "c1", Mode: ModeMove, TargetCategoryID: "c2",
	}))
	require.ErrorIs(t, err, ErrPersistence)

	assert.Equal(t, []string{"c1", "c2"}, categoryIDs(s.Categories().List()))
	for _, n := range s.Notes().List() {
		assert.Equal(t, "c2", n.CategoryID, "reassignment persisted and stays")
	}
}

func TestCoordinator_DeleteAllPartialFailure(t *testing.T) {
	fp := workHome()
	fp.deleteNoteHook = func(id string) error {
		if id == "n2" {
			return errBoom
		}
		return nil
	}
	s := newTestSession(t, fp)

	_, err := wait(t, s.Categories().Delete(DeleteCategoryRequest{CategoryID: "c1", Mode: ModeDeleteAll}))
	require.ErrorIs(t, err, ErrPersistence)

	notes, cats := s.Snapshot()
	assert.Equal(t, []string{"n2", "n3"}, ids(notes), "only the note that failed to delete comes back")
	assert.Equal(t, []string{"c1", "c2"}, categoryIDs(cats))
	assert.NotContains(t, fp.Calls(), "DeleteCategory:c1")
}

func TestCoordinator_DeleteProvisionalCategory(t *testing.T) {
	fp := workHome()
	release := make(chan struct{})
	fp.saveCategoryHook = func(Category) error {
		<-release
		return nil
	}
	s := newTestSession(t, fp)

	cat, created := s.Categories().Create()
	p := s.Categories().Delete(DeleteCategoryRequest{CategoryID: cat.ID, Mode: ModeDeleteAll})
	_, ok := s.Categories().Get(cat.ID)
	assert.False(t, ok)

	close(release)
	durable, err := wait(t, created)
	require.NoError(t, err)
	_, err = wait(t, p)
	require.NoError(t, err)

	assert.Contains(t, fp.Calls(), "DeleteCategory:"+durable, "durable record removed once it exists")
}
