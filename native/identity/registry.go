package identity

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"neobots/core/types"
)

const (
	eventAssetRegistered  = "identity.asset.registered"
	eventAssetTransferred = "identity.asset.transferred"
)

var (
	ErrAssetNotFound = errors.New("identity: asset not found")
	ErrAssetExists   = errors.New("identity: asset already registered")
	ErrNotOwned      = errors.New("identity: asset not owned by actor")
	ErrNotVerified   = errors.New("identity: asset not in verified collection")
	ErrInvalidAsset  = errors.New("identity: invalid asset")
)

// Asset is a non-fungible identity token. The holder of an asset acts for the
// participant bound to it.
type Asset struct {
	ID         solana.PublicKey
	Owner      solana.PublicKey
	Collection solana.PublicKey
	Verified   bool
}

// Clone returns a copy of the asset.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

// State is the storage the registry needs.
type State interface {
	IdentityAssetGet(id solana.PublicKey) (*Asset, bool, error)
	IdentityAssetPut(asset *Asset) error
	AppendEvent(evt *types.Event)
}

// Registry answers ownership and collection-membership questions from the
// asset records kept in state. It performs no signature checks; callers are
// assumed to be authenticated by the transport.
type Registry struct{}

// NewRegistry constructs a registry.
func NewRegistry() *Registry { return &Registry{} }

// Register stores a new asset.
func (r *Registry) Register(st State, asset *Asset) error {
	if asset == nil || asset.ID.IsZero() || asset.Owner.IsZero() {
		return ErrInvalidAsset
	}
	if _, ok, err := st.IdentityAssetGet(asset.ID); err != nil {
		return err
	} else if ok {
		return ErrAssetExists
	}
	if err := st.IdentityAssetPut(asset.Clone()); err != nil {
		return err
	}
	st.AppendEvent(&types.Event{Type: eventAssetRegistered, Attributes: map[string]string{
		"asset":      asset.ID.String(),
		"owner":      asset.Owner.String(),
		"collection": asset.Collection.String(),
		"verified":   fmt.Sprintf("%t", asset.Verified),
	}})
	return nil
}

// Transfer moves the asset to a new holder. Only the current holder may do so.
func (r *Registry) Transfer(st State, id, from, to solana.PublicKey) error {
	if to.IsZero() {
		return ErrInvalidAsset
	}
	asset, err := r.load(st, id)
	if err != nil {
		return err
	}
	if !asset.Owner.Equals(from) {
		return ErrNotOwned
	}
	asset.Owner = to
	if err := st.IdentityAssetPut(asset); err != nil {
		return err
	}
	st.AppendEvent(&types.Event{Type: eventAssetTransferred, Attributes: map[string]string{
		"asset": id.String(),
		"from":  from.String(),
		"to":    to.String(),
	}})
	return nil
}

// Owner returns the current holder of the asset.
func (r *Registry) Owner(st State, id solana.PublicKey) (solana.PublicKey, error) {
	asset, err := r.load(st, id)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return asset.Owner, nil
}

// Controls reports whether actor currently holds the asset.
func (r *Registry) Controls(st State, actor, id solana.PublicKey) (bool, error) {
	asset, err := r.load(st, id)
	if err != nil {
		return false, err
	}
	return asset.Owner.Equals(actor), nil
}

// VerifyCollection fails with ErrNotVerified unless the asset is a verified
// member of the collection.
func (r *Registry) VerifyCollection(st State, id, collection solana.PublicKey) error {
	asset, err := r.load(st, id)
	if err != nil {
		return err
	}
	if !asset.Verified || !asset.Collection.Equals(collection) {
		return fmt.Errorf("%w: %s", ErrNotVerified, id)
	}
	return nil
}

func (r *Registry) load(st State, id solana.PublicKey) (*Asset, error) {
	if st == nil {
		return nil, errors.New("identity: state not configured")
	}
	asset, ok, err := st.IdentityAssetGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || asset == nil {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	return asset, nil
}
