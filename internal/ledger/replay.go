package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"pos-backend/internal/apperror"
	"pos-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type State struct {
	MainStock decimal.Decimal `json:"main_stock"`
	StockRoom decimal.Decimal `json:"stock_room"`
}

// Equal compares quantities by value, ignoring decimal scale.
func (s State) Equal(o State) bool {
	return s.MainStock.Equal(o.MainStock) && s.StockRoom.Equal(o.StockRoom)
}

// MismatchError: an entry's snapshot disagrees with the replayed state.
type MismatchError struct {
	EntryID uint
	Want    State // replayed
	Got     State // stored snapshot
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("ledger entry %d: replayed main=%s room=%s, snapshot main=%s room=%s",
		e.EntryID, e.Want.MainStock, e.Want.StockRoom, e.Got.MainStock, e.Got.StockRoom)
}

// Apply moves s by one entry's quantity.
func Apply(s State, e Entry) State {
	q := e.Quantity
	switch e.TransactionType {
	case models.TxStockOut, models.TxWaste:
		s.MainStock = s.MainStock.Add(q)
	case models.TxTransferToMain:
		s.MainStock = s.MainStock.Add(q)
		s.StockRoom = s.StockRoom.Sub(q)
	case models.TxTransferToRoom:
		s.MainStock = s.MainStock.Sub(q)
		s.StockRoom = s.StockRoom.Add(q)
	case models.TxStockIn, models.TxAdjustment:
		if e.Location == models.LocationRoom {
			s.StockRoom = s.StockRoom.Add(q)
		} else {
			s.MainStock = s.MainStock.Add(q)
		}
	}
	return s
}

func sortForReplay(entries []Entry) []Entry {
	out := append([]Entry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Replay starts from the oldest entry's snapshot and checks every later snapshot.
// Entries must belong to a single ingredient.
func Replay(entries []Entry) (State, error) {
	if len(entries) == 0 {
		return State{}, nil
	}
	ordered := sortForReplay(entries)

	s := State{MainStock: ordered[0].MainStockAfter, StockRoom: ordered[0].StockRoomAfter}
	for _, e := range ordered[1:] {
		s = Apply(s, e)
		got := State{MainStock: e.MainStockAfter, StockRoom: e.StockRoomAfter}
		if !s.Equal(got) {
			return s, &MismatchError{EntryID: e.ID, Want: s, Got: got}
		}
	}
	return s, nil
}

type Verification struct {
	IngredientID uint   `json:"ingredient_id"`
	Entries      int    `json:"entries"`
	Replayed     State  `json:"replayed"`
	Current      State  `json:"current"`
	Consistent   bool   `json:"consistent"`
	Problem      string `json:"problem,omitempty"`
}

// Verify replays an ingredient's history and compares it with the catalog row.
func Verify(ctx context.Context, db *gorm.DB, ingredientID uint) (*Verification, error) {
	var ing models.Ingredient
	err := db.WithContext(ctx).First(&ing, "id = ?", ingredientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFoundf(fmt.Sprintf("ingredient %d", ingredientID), "not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load ingredient %d: %w", ingredientID, err)
	}
	history, err := History(ctx, db, ingredientID)
	if err != nil {
		return nil, err
	}

	v := &Verification{
		IngredientID: ingredientID,
		Entries:      len(history),
		Current:      State{MainStock: ing.MainStock, StockRoom: ing.StockRoom},
	}
	if len(history) == 0 {
		v.Replayed = v.Current
		v.Consistent = true
		return v, nil
	}

	v.Replayed, err = Replay(history)
	switch {
	case err != nil:
		v.Problem = err.Error()
	case !v.Replayed.Equal(v.Current):
		v.Problem = "catalog quantities differ from last ledger snapshot"
	default:
		v.Consistent = true
	}
	return v, nil
}
