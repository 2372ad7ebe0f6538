package service

import (
	"context"
	"fmt"
	"testing"

	"clan-hub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedAndPilotScenario(t *testing.T) {
	db := newTestDB(t)
	svc := newSiegeWarService(t, db, nil)
	ctx := context.Background()
	war := openWar(t, svc)
	owner := addMember(t, db, "Owner", model.StatusApproved, "")
	pilot := addMember(t, db, "Pilot", model.StatusApproved, "")

	_, err := svc.SubmitResponse(ctx, war.ID, owner.ID, model.RespondRequest{
		ResponseType: model.ResponseShared, SharedClass: "MAGE", GameID: "owner#1", Password: "pw",
	})
	require.NoError(t, err)

	shares, err := svc.AvailableShares(ctx, war.ID)
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, owner.ID, shares[0].MemberID)
	assert.Equal(t, "Owner", shares[0].Nick)
	assert.Equal(t, model.GameClass("MAGE"), shares[0].SharedClass)

	_, err = svc.SubmitResponse(ctx, war.ID, pilot.ID, model.RespondRequest{
		ResponseType: model.ResponsePilot, PilotingForID: ptr(owner.ID),
	})
	require.NoError(t, err)

	shares, err = svc.AvailableShares(ctx, war.ID)
	require.NoError(t, err)
	assert.Empty(t, shares)

	sum, err := svc.Summary(ctx, war.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sum.Pilots)
	assert.Equal(t, int64(1), sum.Shared)
	assert.Equal(t, int64(2), sum.Responded)
	assert.Equal(t, int64(2), sum.Total)
	assert.Empty(t, sum.NotResponded)
}

func TestSummaryCountsAgainstLiveRoster(t *testing.T) {
	db := newTestDB(t)
	svc := newSiegeWarService(t, db, nil)
	ctx := context.Background()
	war := openWar(t, svc)

	a := addMember(t, db, "Ayla", model.StatusApproved, "")
	b := addMember(t, db, "Bo", model.StatusApproved, "")
	addMember(t, db, "Cid", model.StatusPending, "")
	d := addMember(t, db, "Dee", model.StatusApproved, "")

	for id, typ := range map[int]model.ResponseType{a.ID: model.ResponseConfirmed, b.ID: model.ResponseAbsent} {
		_, err := svc.SubmitResponse(ctx, war.ID, id, model.RespondRequest{ResponseType: typ})
		require.NoError(t, err)
	}

	sum, err := svc.Summary(ctx, war.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.Total)
	assert.Equal(t, int64(2), sum.Responded)
	assert.Equal(t, int64(1), sum.Confirmed)
	assert.Equal(t, int64(1), sum.Absent)
	assert.Zero(t, sum.Shared)
	assert.Zero(t, sum.Pilots)
	assert.Equal(t, []model.RosterEntry{{ID: d.ID, Nick: "Dee", GameClass: "KNIGHT"}}, sum.NotResponded)

	// approved after the period opened: still owes a response
	late := addMember(t, db, "Late", model.StatusApproved, "")
	sum, err = svc.Summary(ctx, war.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), sum.Total)
	require.Len(t, sum.NotResponded, 2)
	assert.Equal(t, late.ID, sum.NotResponded[1].ID)
}

func TestRespondedMatchesDistinctMembers(t *testing.T) {
	types := []model.ResponseType{model.ResponseConfirmed, model.ResponseAbsent, model.ResponseShared}
	for _, roster := range []int{0, 1, 5, 12} {
		t.Run(fmt.Sprintf("roster_%d", roster), func(t *testing.T) {
			db := newTestDB(t)
			svc := newSiegeWarService(t, db, nil)
			ctx := context.Background()
			war := openWar(t, svc)

			want := map[int]bool{}
			for i := 0; i < roster; i++ {
				m := addMember(t, db, fmt.Sprintf("M%02d", i), model.StatusApproved, "")
				if i%3 == 2 {
					continue
				}
				// answer twice, the second one counts
				for j := 0; j < 2; j++ {
					_, err := svc.SubmitResponse(ctx, war.ID, m.ID, model.RespondRequest{ResponseType: types[(i+j)%len(types)]})
					require.NoError(t, err)
				}
				want[m.ID] = true
			}

			sum, err := svc.Summary(ctx, war.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(len(want)), sum.Responded)
			assert.Equal(t, sum.Responded, sum.Confirmed+sum.Shared+sum.Pilots+sum.Absent)
			assert.Equal(t, int64(roster), sum.Total)
			assert.Len(t, sum.NotResponded, roster-len(want))
		})
	}
}

func TestAvailableSharesOrderIsStable(t *testing.T) {
	db := newTestDB(t)
	svc := newSiegeWarService(t, db, nil)
	ctx := context.Background()
	war := openWar(t, svc)

	var ids []int
	for _, nick := range []string{"Zed", "Amy", "Kai"} {
		m := addMember(t, db, nick, model.StatusApproved, "")
		_, err := svc.SubmitResponse(ctx, war.ID, m.ID, model.RespondRequest{ResponseType: model.ResponseShared})
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}

	for i := 0; i < 3; i++ {
		shares, err := svc.AvailableShares(ctx, war.ID)
		require.NoError(t, err)
		require.Len(t, shares, 3)
		for j, s := range shares {
			assert.Equal(t, ids[j], s.MemberID)
		}
	}
}

func TestReport(t *testing.T) {
	db := newTestDB(t)
	svc := newSiegeWarService(t, db, nil)
	ctx := context.Background()

	_, err := svc.Report(ctx, 77)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Summary(ctx, 77)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.AvailableShares(ctx, 77)
	assert.ErrorIs(t, err, ErrNotFound)

	war := openWar(t, svc)
	a := addMember(t, db, "Ayla", model.StatusApproved, "")
	b := addMember(t, db, "Bo", model.StatusApproved, "")
	_, err = svc.SubmitResponse(ctx, war.ID, a.ID, model.RespondRequest{ResponseType: model.ResponseShared, Password: "pw"})
	require.NoError(t, err)

	report, err := svc.Report(ctx, war.ID)
	require.NoError(t, err)
	require.Len(t, report.Responses, 1)
	require.NotNil(t, report.Responses[0].Member)
	assert.Equal(t, "Ayla", report.Responses[0].Member.Nick)
	assert.Equal(t, "pw", report.Responses[0].Password)
	assert.Equal(t, []model.RosterEntry{{ID: b.ID, Nick: "Bo", GameClass: "KNIGHT"}}, report.NotResponded)
	assert.Equal(t, report.NotResponded, report.Summary.NotResponded)
	require.Len(t, report.AvailableShares, 1)
	assert.Equal(t, a.ID, report.AvailableShares[0].MemberID)
	assert.Equal(t, int64(1), report.Summary.Responded)
}

func TestCurrent(t *testing.T) {
	db := newTestDB(t)
	svc := newSiegeWarService(t, db, nil)
	ctx := context.Background()
	m := addMember(t, db, "Ayla", model.StatusApproved, "")

	war, resp, err := svc.Current(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, war)
	assert.Nil(t, resp)

	open := openWar(t, svc)
	war, resp, err = svc.Current(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, war)
	assert.Equal(t, open.ID, war.ID)
	assert.Nil(t, resp)

	_, err = svc.SubmitResponse(ctx, open.ID, m.ID, model.RespondRequest{ResponseType: model.ResponseAbsent})
	require.NoError(t, err)
	_, resp, err = svc.Current(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, model.ResponseAbsent, resp.ResponseType)
}
