package economy

import (
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"

	"neobots/core/events"
)

// ActionKind names a social action.
type ActionKind string

const (
	ActionPost     ActionKind = "post"
	ActionComment  ActionKind = "comment"
	ActionReaction ActionKind = "reaction"
)

// PostInput is the content of a new post.
type PostInput struct {
	Tag          string
	Content      string
	Interactable bool
}

// PostRef addresses a post by author and the author's post sequence.
type PostRef struct {
	Author   solana.PublicKey
	Sequence uint64
}

// CommentRef addresses a comment by author and the author's comment sequence.
type CommentRef struct {
	Author   solana.PublicKey
	Sequence uint64
}

// Receipt summarises the effect of an action.
type Receipt struct {
	Kind           ActionKind
	Participant    solana.PublicKey
	Sequence       uint64
	Reward         uint64
	ReceiverReward uint64
	Fee            uint64
	Delegated      bool
	Post           *Post
}

// actionContext carries the records an action reads and writes. Nothing is
// stored until commit.
type actionContext struct {
	forum   *Forum
	user    *User
	caller  Caller
	session *OperatorSession
	price   OperatorPrice
	fee     uint64
}

func (ac *actionContext) delegated() bool { return ac.caller.Kind == CallerOperator }

// begin loads and authorises the actor, then refreshes the participant.
func (e *Engine) begin(st State, forumName string, actor, asset solana.PublicKey, delegated bool) (*actionContext, error) {
	forum, err := e.loadForum(st, forumName)
	if err != nil {
		return nil, err
	}
	user, err := e.loadUser(st, forumName, asset)
	if err != nil {
		return nil, err
	}
	if err := e.verifyCollection(st, forum, asset); err != nil {
		return nil, err
	}
	ac := &actionContext{forum: forum, user: user}
	if delegated {
		if ac.caller, err = e.requireOperator(st, actor, user); err != nil {
			return nil, err
		}
		if ac.session, err = e.loadSession(st, forumName, asset); err != nil {
			return nil, err
		}
		if !ac.session.Operator.Equals(actor) {
			return nil, fmt.Errorf("%w: session bound to %s", ErrIdentityMismatch, ac.session.Operator)
		}
		op, err := e.loadOperator(st, actor)
		if err != nil {
			return nil, err
		}
		ac.price = op.Price
	} else {
		if ac.caller, err = e.requirePrincipal(st, actor, user); err != nil {
			return nil, err
		}
	}
	e.refresh(st, user, forum)
	return ac, nil
}

// charge checks the budget counter and, for delegated actions, the session
// balance, then debits both. Either both are debited or neither is.
func (ac *actionContext) charge(counter *uint64, price uint64) error {
	if *counter < 1 {
		return ErrInsufficientBudget
	}
	if ac.delegated() {
		s := ac.session
		if s.AmountForUser < price {
			return fmt.Errorf("%w: have %d, price %d", ErrInsufficientDelegatedFunds, s.AmountForUser, price)
		}
		forOperator, err := checkedAdd(s.AmountForOperator, price)
		if err != nil {
			return err
		}
		s.AmountForUser -= price
		s.AmountForOperator = forOperator
		ac.fee = price
	}
	*counter--
	return nil
}

func (ac *actionContext) commit(st State, others ...*User) error {
	if err := st.EconomyUserPut(ac.user); err != nil {
		return err
	}
	for _, other := range others {
		if other == nil || other == ac.user {
			continue
		}
		if err := st.EconomyUserPut(other); err != nil {
			return err
		}
	}
	if ac.session != nil {
		if err := st.EconomySessionPut(ac.session); err != nil {
			return err
		}
	}
	return nil
}

func (ac *actionContext) performed(st State, kind ActionKind, sequence uint64, target solana.PublicKey, content string) {
	emit(st, events.ActionPerformed{
		Forum:       ac.forum.Name,
		Participant: ac.user.Asset,
		Action:      string(kind),
		Sequence:    sequence,
		Target:      target,
		Content:     content,
		Delegated:   ac.delegated(),
		Operator:    ac.caller.Actor,
		Fee:         ac.fee,
	})
}

// counterFor returns the budget counter spent by a reaction.
func (ap *ActionPoints) counterFor(r ReactionType) *uint64 {
	switch r {
	case ReactionUpvote:
		return &ap.Upvote
	case ReactionDownvote:
		return &ap.Downvote
	case ReactionLike:
		return &ap.Like
	case ReactionBanvote:
		return &ap.Banvote
	}
	return nil
}

func (p OperatorPrice) forReaction(r ReactionType) uint64 {
	if r == ReactionLike {
		return p.PerLike
	}
	return p.PerVote
}

// CreatePost publishes a post as the principal.
func (e *Engine) CreatePost(st State, forumName string, actor, asset solana.PublicKey, input PostInput) (*Receipt, error) {
	return e.createPost(st, forumName, actor, asset, input, false)
}

// OperatorCreatePost publishes a post on the participant's behalf and charges
// the operator's per-post fee to the session.
func (e *Engine) OperatorCreatePost(st State, forumName string, operator, asset solana.PublicKey, input PostInput) (*Receipt, error) {
	return e.createPost(st, forumName, operator, asset, input, true)
}

func (e *Engine) createPost(st State, forumName string, actor, asset solana.PublicKey, input PostInput, delegated bool) (*Receipt, error) {
	if len(input.Content) > MaxPostContentLength || len(input.Tag) > MaxPostTagLength {
		return nil, fmt.Errorf("%w: post content limited to %d bytes, tag to %d", ErrInvalidInput, MaxPostContentLength, MaxPostTagLength)
	}
	ac, err := e.begin(st, forumName, actor, asset, delegated)
	if err != nil {
		return nil, err
	}
	if err := ac.charge(&ac.user.ActionPoints.Post, ac.price.PerPost); err != nil {
		return nil, err
	}
	if err := checkedIncrement(&ac.user.PostCount); err != nil {
		return nil, err
	}
	post := &Post{
		Forum:        ac.forum.Name,
		Author:       asset,
		Sequence:     ac.user.PostCount,
		CreatedAt:    e.now(),
		Interactable: input.Interactable,
		Tag:          input.Tag,
		Content:      input.Content,
	}
	if err := st.EconomyPostPut(post); err != nil {
		return nil, err
	}
	if err := ac.commit(st); err != nil {
		return nil, err
	}
	ac.performed(st, ActionPost, post.Sequence, solana.PublicKey{}, post.Content)
	return &Receipt{
		Kind:        ActionPost,
		Participant: asset,
		Sequence:    post.Sequence,
		Fee:         ac.fee,
		Delegated:   ac.delegated(),
		Post:        post.Clone(),
	}, nil
}

// AddComment comments on an interactable post. The commenter earns
// k_comment and the post author k_comment_receiver.
func (e *Engine) AddComment(st State, forumName string, actor, asset solana.PublicKey, post PostRef, content string) (*Receipt, error) {
	return e.addComment(st, forumName, actor, asset, post, content, false)
}

// OperatorAddComment comments on the participant's behalf and charges the
// operator's per-comment fee to the session.
func (e *Engine) OperatorAddComment(st State, forumName string, operator, asset solana.PublicKey, post PostRef, content string) (*Receipt, error) {
	return e.addComment(st, forumName, operator, asset, post, content, true)
}

func (e *Engine) addComment(st State, forumName string, actor, asset solana.PublicKey, ref PostRef, content string, delegated bool) (*Receipt, error) {
	if len(content) > MaxPostContentLength {
		return nil, fmt.Errorf("%w: comment limited to %d bytes", ErrInvalidInput, MaxPostContentLength)
	}
	ac, err := e.begin(st, forumName, actor, asset, delegated)
	if err != nil {
		return nil, err
	}
	post, ok, err := st.EconomyPostGet(forumName, ref.Author, ref.Sequence)
	if err != nil {
		return nil, err
	}
	if !ok || post == nil {
		return nil, fmt.Errorf("%w: %s/%d", ErrPostNotFound, ref.Author, ref.Sequence)
	}
	if !post.Interactable {
		return nil, ErrPostNotInteractable
	}
	author := ac.user
	if !ref.Author.Equals(asset) {
		if author, err = e.loadUser(st, forumName, ref.Author); err != nil {
			return nil, err
		}
	}

	if err := ac.charge(&ac.user.ActionPoints.Comment, ac.price.PerComment); err != nil {
		return nil, err
	}
	if err := checkedIncrement(&ac.user.CommentCount); err != nil {
		return nil, err
	}
	reward := CalculateReward(ac.forum.Config.KComment, ac.forum)
	if err := e.credit(st, ac.forum, ac.user, reward, ReasonComment); err != nil {
		return nil, err
	}
	var receiverReward uint64
	if ac.forum.Config.KCommentReceiver > 0 {
		receiverReward = CalculateReward(ac.forum.Config.KCommentReceiver, ac.forum)
		if err := e.credit(st, ac.forum, author, receiverReward, ReasonCommentReceived); err != nil {
			return nil, err
		}
	}
	if err := ac.commit(st, author); err != nil {
		return nil, err
	}
	ac.performed(st, ActionComment, ac.user.CommentCount, ref.Author, content)
	return &Receipt{
		Kind:           ActionComment,
		Participant:    asset,
		Sequence:       ac.user.CommentCount,
		Reward:         reward,
		ReceiverReward: receiverReward,
		Fee:            ac.fee,
		Delegated:      ac.delegated(),
	}, nil
}

// AddReaction reacts to a comment. Both the giver and the comment author are
// rewarded.
func (e *Engine) AddReaction(st State, forumName string, actor, asset solana.PublicKey, target CommentRef, reaction ReactionType) (*Receipt, error) {
	return e.addReaction(st, forumName, actor, asset, target, reaction, false)
}

// OperatorAddReaction reacts on the participant's behalf and charges the
// operator's per-like or per-vote fee to the session.
func (e *Engine) OperatorAddReaction(st State, forumName string, operator, asset solana.PublicKey, target CommentRef, reaction ReactionType) (*Receipt, error) {
	return e.addReaction(st, forumName, operator, asset, target, reaction, true)
}

func (e *Engine) addReaction(st State, forumName string, actor, asset solana.PublicKey, target CommentRef, reaction ReactionType, delegated bool) (*Receipt, error) {
	if !reaction.Valid() {
		return nil, fmt.Errorf("%w: unknown reaction %d", ErrInvalidInput, reaction)
	}
	ac, err := e.begin(st, forumName, actor, asset, delegated)
	if err != nil {
		return nil, err
	}
	receiver := ac.user
	if !target.Author.Equals(asset) {
		if receiver, err = e.loadUser(st, forumName, target.Author); err != nil {
			return nil, err
		}
	}
	if target.Sequence == 0 || target.Sequence > receiver.CommentCount {
		return nil, fmt.Errorf("%w: %s/%d", ErrCommentNotFound, target.Author, target.Sequence)
	}
	repeats, err := recordInteraction(ac.user, target.Author)
	if err != nil {
		return nil, err
	}

	if err := ac.charge(ac.user.ActionPoints.counterFor(reaction), ac.price.forReaction(reaction)); err != nil {
		return nil, err
	}
	if err := checkedIncrement(&ac.user.ReactionCount); err != nil {
		return nil, err
	}
	if err := checkedIncrement(ac.user.ReactionsSent.counter(reaction)); err != nil {
		return nil, err
	}
	if err := checkedIncrement(receiver.ReactionsReceived.counter(reaction)); err != nil {
		return nil, err
	}

	reward := CalculateReward(ac.forum.Config.KReactionGiver, ac.forum)
	if e.params.RepeatDecay {
		reward = applyDecay(reward, ac.forum.Config.DecayFactor, repeats)
	}
	if err := e.credit(st, ac.forum, ac.user, reward, ReasonReactionGiven); err != nil {
		return nil, err
	}
	receiverReward := CalculateReward(ac.forum.Config.KReactionReceiver, ac.forum)
	if err := e.credit(st, ac.forum, receiver, receiverReward, ReasonReactionReceived); err != nil {
		return nil, err
	}
	if err := ac.commit(st, receiver); err != nil {
		return nil, err
	}
	ac.performed(st, ActionReaction, target.Sequence, target.Author, reaction.String())
	return &Receipt{
		Kind:           ActionReaction,
		Participant:    asset,
		Sequence:       target.Sequence,
		Reward:         reward,
		ReceiverReward: receiverReward,
		Fee:            ac.fee,
		Delegated:      ac.delegated(),
	}, nil
}

// recordInteraction bumps the giver's counter for the target and returns how
// many times the giver had already reacted to it this round.
func recordInteraction(user *User, target solana.PublicKey) (uint8, error) {
	var short [6]byte
	copy(short[:], target[:6])
	for i := range user.InteractionMetrics {
		metric := &user.InteractionMetrics[i]
		if metric.ShortID != short {
			continue
		}
		previous := metric.Count
		if metric.Count < math.MaxUint8 {
			metric.Count++
		}
		return previous, nil
	}
	if len(user.InteractionMetrics) >= MaxInteractionMetrics {
		return 0, ErrExceedMaxRepeatCount
	}
	user.InteractionMetrics = append(user.InteractionMetrics, InteractionMetric{ShortID: short, Count: 1})
	return 0, nil
}
