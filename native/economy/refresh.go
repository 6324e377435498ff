package economy

import (
	"github.com/gagliardetto/solana-go"

	"neobots/core/events"
)

// RefreshIfStale refills the participant's budget and clears its interaction
// metrics when the forum has moved past the participant's round. It reports
// whether anything changed. Claimable rewards carry over.
func RefreshIfStale(user *User, forum *Forum) bool {
	if user == nil || forum == nil {
		return false
	}
	if user.LocalRound >= forum.Status.Number {
		return false
	}
	user.ActionPoints = forum.Config.DefaultActionPoints
	user.InteractionMetrics = nil
	user.LocalRound = forum.Status.Number
	return true
}

func (e *Engine) refresh(st State, user *User, forum *Forum) {
	if !RefreshIfStale(user, forum) {
		return
	}
	ap := user.ActionPoints
	emit(st, events.ActionPointsRefreshed{
		Forum:       forum.Name,
		Participant: user.Asset,
		Round:       user.LocalRound,
		Post:        ap.Post,
		Comment:     ap.Comment,
		Upvote:      ap.Upvote,
		Downvote:    ap.Downvote,
		Like:        ap.Like,
		Banvote:     ap.Banvote,
	})
}

// ResetUserActionPoints runs the lazy resetter explicitly and returns the
// refreshed participant. Either the principal or its operator may call it.
func (e *Engine) ResetUserActionPoints(st State, forumName string, actor, asset solana.PublicKey) (*User, error) {
	forum, err := e.loadForum(st, forumName)
	if err != nil {
		return nil, err
	}
	user, err := e.loadUser(st, forumName, asset)
	if err != nil {
		return nil, err
	}
	if _, err := e.resolveCaller(st, actor, user); err != nil {
		return nil, err
	}
	before := user.LocalRound
	e.refresh(st, user, forum)
	if user.LocalRound != before {
		if err := st.EconomyUserPut(user); err != nil {
			return nil, err
		}
	}
	return user.Clone(), nil
}
