package run

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/database"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/compliance"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/holdings"
	"github.com/thrasher-corp/gct-backtester/log"
)

// Insert stores a run summary along with its equity curve and audit log.
// Storing a run under an existing id replaces it
func Insert(ctx context.Context, db *database.Instance, s *Summary, equity []holdings.Equity, audit []compliance.Record) (err error) {
	if s == nil {
		return errNilRun
	}
	if s.ID == "" {
		return errInvalidID
	}
	con, err := db.GetSQL()
	if err != nil {
		return err
	}
	tx, err := con.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if errRB := tx.Rollback(); errRB != nil {
				log.Errorf(log.Database, "run Insert tx.Rollback %v", errRB)
			}
		}
	}()
	if err = deleteRun(ctx, db, tx, s.ID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, db.Rebind(`INSERT INTO run (id, nickname, strategy, status, reason, started, finished,
		initial_funds, final_equity, total_return, max_drawdown, sharpe_ratio, fills, rejections, discarded_events)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		s.ID, s.Nickname, s.Strategy, s.Status, s.Reason,
		s.Started.UTC().UnixMilli(), s.Finished.UTC().UnixMilli(),
		s.InitialFunds.String(), s.FinalEquity.String(), s.TotalReturn.String(),
		s.MaxDrawdown.String(), s.SharpeRatio.String(),
		s.Fills, s.Rejections, s.DiscardedEvents)
	if err != nil {
		return err
	}
	if err = insertEquity(ctx, db, tx, s.ID, equity); err != nil {
		return err
	}
	if err = insertAudit(ctx, db, tx, s.ID, audit); err != nil {
		return err
	}
	return tx.Commit()
}

func insertEquity(ctx context.Context, db *database.Instance, tx *sql.Tx, id string, equity []holdings.Equity) error {
	if len(equity) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, db.Rebind(`INSERT INTO run_equity (run_id, seq, ts, cash, market_value, equity)
		VALUES (?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := range equity {
		_, err = stmt.ExecContext(ctx, id, i,
			equity[i].Time.UTC().UnixMilli(),
			equity[i].Cash.String(),
			equity[i].MarketValue.String(),
			equity[i].Equity.String())
		if err != nil {
			return err
		}
	}
	return nil
}

func insertAudit(ctx context.Context, db *database.Instance, tx *sql.Tx, id string, audit []compliance.Record) error {
	if len(audit) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, db.Rebind(`INSERT INTO run_audit (run_id, seq, ts, status, source, instrument, order_id,
		side, order_type, quantity, price, commission, slippage, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := range audit {
		r := &audit[i]
		_, err = stmt.ExecContext(ctx, id, i,
			r.Time.UTC().UnixMilli(),
			string(r.Status),
			r.Source,
			r.Instrument,
			r.OrderID,
			string(r.Side),
			string(r.OrderType),
			r.Quantity.String(),
			r.Price.String(),
			r.Commission.String(),
			r.Slippage.String(),
			r.Reason)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetSummary returns the stored summary of a run
func GetSummary(ctx context.Context, db *database.Instance, id string) (*Summary, error) {
	if id == "" {
		return nil, errInvalidID
	}
	con, err := db.GetSQL()
	if err != nil {
		return nil, err
	}
	row := con.QueryRowContext(ctx, db.Rebind(summaryQuery+` WHERE id = ?`), id)
	s, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w %v", ErrRunNotFound, id)
	}
	return s, err
}

// ListSummaries returns every stored run ordered by start time
func ListSummaries(ctx context.Context, db *database.Instance) ([]Summary, error) {
	con, err := db.GetSQL()
	if err != nil {
		return nil, err
	}
	rows, err := con.QueryContext(ctx, summaryQuery+` ORDER BY started, id`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)
	var resp []Summary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		resp = append(resp, *s)
	}
	return resp, rows.Err()
}

// GetEquity returns the stored equity curve of a run
func GetEquity(ctx context.Context, db *database.Instance, id string) ([]holdings.Equity, error) {
	if id == "" {
		return nil, errInvalidID
	}
	con, err := db.GetSQL()
	if err != nil {
		return nil, err
	}
	rows, err := con.QueryContext(ctx, db.Rebind(`SELECT ts, cash, market_value, equity FROM run_equity
		WHERE run_id = ? ORDER BY seq`), id)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)
	var resp []holdings.Equity
	for rows.Next() {
		var ts int64
		var cash, marketValue, equity string
		if err = rows.Scan(&ts, &cash, &marketValue, &equity); err != nil {
			return nil, err
		}
		e := holdings.Equity{Time: time.UnixMilli(ts).UTC()}
		if e.Cash, err = decimal.NewFromString(cash); err != nil {
			return nil, err
		}
		if e.MarketValue, err = decimal.NewFromString(marketValue); err != nil {
			return nil, err
		}
		if e.Equity, err = decimal.NewFromString(equity); err != nil {
			return nil, err
		}
		resp = append(resp, e)
	}
	return resp, rows.Err()
}

// GetAudit returns the stored audit log of a run
func GetAudit(ctx context.Context, db *database.Instance, id string) ([]compliance.Record, error) {
	if id == "" {
		return nil, errInvalidID
	}
	con, err := db.GetSQL()
	if err != nil {
		return nil, err
	}
	rows, err := con.QueryContext(ctx, db.Rebind(`SELECT ts, status, source, instrument, order_id, side, order_type,
		quantity, price, commission, slippage, reason FROM run_audit WHERE run_id = ? ORDER BY seq`), id)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)
	var resp []compliance.Record
	for rows.Next() {
		var ts int64
		var status, side, orderType, quantity, price, fee, slippage string
		var r compliance.Record
		if err = rows.Scan(&ts, &status, &r.Source, &r.Instrument, &r.OrderID, &side, &orderType,
			&quantity, &price, &fee, &slippage, &r.Reason); err != nil {
			return nil, err
		}
		r.Time = time.UnixMilli(ts).UTC()
		r.Status = common.OrderStatus(status)
		r.Side = common.Side(side)
		r.OrderType = common.OrderType(orderType)
		if r.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, err
		}
		if r.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if r.Commission, err = decimal.NewFromString(fee); err != nil {
			return nil, err
		}
		if r.Slippage, err = decimal.NewFromString(slippage); err != nil {
			return nil, err
		}
		resp = append(resp, r)
	}
	return resp, rows.Err()
}

// Delete removes a run and everything stored with it
func Delete(ctx context.Context, db *database.Instance, id string) (err error) {
	if id == "" {
		return errInvalidID
	}
	con, err := db.GetSQL()
	if err != nil {
		return err
	}
	tx, err := con.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if errRB := tx.Rollback(); errRB != nil {
				log.Errorf(log.Database, "run Delete tx.Rollback %v", errRB)
			}
		}
	}()
	if err = deleteRun(ctx, db, tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

// deleteRun clears child rows explicitly as sqlite does not enforce
// foreign keys unless asked to
func deleteRun(ctx context.Context, db *database.Instance, tx *sql.Tx, id string) error {
	for _, table := range []string{"run_audit", "run_equity"} {
		if _, err := tx.ExecContext(ctx, db.Rebind(`DELETE FROM `+table+` WHERE run_id = ?`), id); err != nil {
			return err
		}
	}
	_, err := tx.ExecContext(ctx, db.Rebind(`DELETE FROM run WHERE id = ?`), id)
	return err
}

const summaryQuery = `SELECT id, nickname, strategy, status, reason, started, finished, initial_funds,
	final_equity, total_return, max_drawdown, sharpe_ratio, fills, rejections, discarded_events FROM run`

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (*Summary, error) {
	var s Summary
	var started, finished int64
	var initialFunds, finalEquity, totalReturn, maxDrawdown, sharpe string
	if err := row.Scan(&s.ID, &s.Nickname, &s.Strategy, &s.Status, &s.Reason, &started, &finished,
		&initialFunds, &finalEquity, &totalReturn, &maxDrawdown, &sharpe,
		&s.Fills, &s.Rejections, &s.DiscardedEvents); err != nil {
		return nil, err
	}
	s.Started = time.UnixMilli(started).UTC()
	s.Finished = time.UnixMilli(finished).UTC()
	var err error
	for _, v := range []struct {
		in  string
		out *decimal.Decimal
	}{
		{initialFunds, &s.InitialFunds},
		{finalEquity, &s.FinalEquity},
		{totalReturn, &s.TotalReturn},
		{maxDrawdown, &s.MaxDrawdown},
		{sharpe, &s.SharpeRatio},
	} {
		if *v.out, err = decimal.NewFromString(v.in); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		log.Errorln(log.Database, err)
	}
}
