package db

import (
	"time"

	"github.com/lonng/dicebox/db/model"
	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/protocol"
	"github.com/pkg/errors"
)

type record struct {
	roll *model.Roll
	dice []model.RollDie
}

func newRecord(source string, out *protocol.RollOutcome) *record {
	r := &record{
		roll: &model.Roll{
			RollId:    out.RollID,
			Notation:  out.Notation,
			Source:    source,
			Modifier:  out.Modifier,
			Total:     out.Total,
			Cleared:   out.Cleared,
			DiceCount: len(out.Dice),
			CreatedAt: time.Now().Unix(),
		},
		dice: make([]model.RollDie, 0, len(out.Dice)),
	}
	for i, d := range out.Dice {
		rd := model.RollDie{
			RollId:     out.RollID,
			Seq:        i,
			DieId:      d.ID,
			GroupId:    d.GroupID,
			DieType:    string(d.DieType),
			Sides:      d.Sides,
			Theme:      d.Theme,
			ThemeColor: d.ThemeColor,
			Outcome:    string(d.Outcome),
			Error:      d.Error,
		}
		if d.Value != nil {
			rd.Value = *d.Value
			rd.HasValue = true
		}
		r.dice = append(r.dice, rd)
	}
	return r
}

func insertRecord(r *record) error {
	session := DB.NewSession()
	defer session.Close()

	if err := session.Begin(); err != nil {
		return err
	}
	if _, err := session.Insert(r.roll); err != nil {
		session.Rollback()
		return err
	}
	if len(r.dice) > 0 {
		if _, err := session.Insert(&r.dice); err != nil {
			session.Rollback()
			return err
		}
	}
	return session.Commit()
}

// InsertRoll stores a finished roll and its slots
func InsertRoll(source string, out *protocol.RollOutcome) error {
	if out == nil || out.RollID == "" {
		return errutil.ErrInvalidParameter
	}
	if err := insertRecord(newRecord(source, out)); err != nil {
		logger.Error(err)
		return errors.Wrap(errutil.ErrDBOperation, err.Error())
	}
	return nil
}

// InsertRollAsync queues a roll for the background writer
func InsertRollAsync(source string, out *protocol.RollOutcome) {
	if out == nil || out.RollID == "" {
		return
	}
	select {
	case chWrite <- newRecord(source, out):
	default:
		logger.Warnf("write backlog full, roll %s dropped", out.RollID)
	}
}

// QueryRoll returns a roll with its slots in submission order
func QueryRoll(rollID string) (*model.Roll, []model.RollDie, error) {
	r := &model.Roll{}
	has, err := DB.Where("roll_id=?", rollID).Get(r)
	if err != nil {
		logger.Error(err)
		return nil, nil, errutil.ErrDBOperation
	}
	if !has {
		return nil, nil, errutil.ErrRollNotFound
	}

	dice := make([]model.RollDie, 0, r.DiceCount)
	if err := DB.Where("roll_id=?", rollID).Asc("seq").Find(&dice); err != nil {
		logger.Error(err)
		return nil, nil, errutil.ErrDBOperation
	}
	return r, dice, nil
}

// RollList pages through rolls, newest first
func RollList(offset, count int) ([]model.Roll, int64, error) {
	if offset < 0 {
		offset = 0
	}
	if count <= 0 {
		count = DefaultPageSize
	}
	if count > MaxPageSize {
		count = MaxPageSize
	}

	total, err := DB.Count(&model.Roll{})
	if err != nil {
		logger.Error(err)
		return nil, 0, errutil.ErrDBOperation
	}

	result := make([]model.Roll, 0, count)
	if err := DB.Desc("id").Limit(count, offset).Find(&result); err != nil {
		logger.Error(err)
		return nil, 0, errutil.ErrDBOperation
	}
	return result, total, nil
}
