package peer

import (
	"bytes"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnchannel/lnwallet"
	"github.com/lightningnetwork/lnchannel/lnwire"
)

// Process is the pure (State, Event) -> (State, Actions) transition
// function. It performs no I/O of its own; every externally observable
// effect is represented in the returned actions for the Driver to carry
// out. now stands in for the clock collaborator spec.md §9 asks be
// injected rather than read from the system.
func Process(km lnwallet.KeyManager, now time.Time, state State, event Event) (State, []Action) {
	switch s := state.(type) {
	case WaitForInit:
		return processWaitForInit(km, s, event)
	case WaitForOpenChannel:
		return processWaitForOpenChannel(km, s, event)
	case WaitForAcceptChannel:
		return processWaitForAcceptChannel(s, event)
	case WaitForFundingInternal:
		return processWaitForFundingInternal(km, s, event)
	case WaitForFundingCreated:
		return processWaitForFundingCreated(km, s, event)
	case WaitForFundingSigned:
		return processWaitForFundingSigned(km, now, s, event)
	case WaitForFundingConfirmed:
		return processWaitForFundingConfirmed(km, s, event)
	case WaitForFundingLocked:
		return processWaitForFundingLocked(s, event)
	case Normal:
		return processNormal(km, s, event)
	default:
		return state, nil
	}
}

func spurious(s State, event Event) (State, []Action) {
	log.Warnf("unhandled event %T in state %T", event, s)
	return s, nil
}

// basepoints bundles the per-channel public basepoints a side discloses in
// its OpenChannel/AcceptChannel message plus its first per-commitment
// point.
type basepoints struct {
	funding         *btcec.PublicKey
	revocation      *btcec.PublicKey
	payment         *btcec.PublicKey
	delayedPayment  *btcec.PublicKey
	htlc            *btcec.PublicKey
	firstCommitment *btcec.PublicKey
}

func deriveBasepoints(km lnwallet.KeyManager, keyPath []uint32) (basepoints, error) {
	var (
		bp  basepoints
		err error
	)
	if bp.funding, err = km.FundingPublicKey(keyPath); err != nil {
		return bp, err
	}
	if bp.revocation, err = km.RevocationPoint(keyPath); err != nil {
		return bp, err
	}
	if bp.payment, err = km.PaymentPoint(keyPath); err != nil {
		return bp, err
	}
	if bp.delayedPayment, err = km.DelayedPaymentPoint(keyPath); err != nil {
		return bp, err
	}
	if bp.htlc, err = km.HtlcPoint(keyPath); err != nil {
		return bp, err
	}
	if bp.firstCommitment, err = km.CommitmentPoint(keyPath, 0); err != nil {
		return bp, err
	}
	return bp, nil
}

func minDepthFor(version lnwallet.ChannelVersion, configured uint32) uint32 {
	if version.HasZeroReserve() {
		return 0
	}
	return configured
}

// --- WaitForInit ---

func processWaitForInit(km lnwallet.KeyManager, s WaitForInit, event Event) (State, []Action) {
	switch ev := event.(type) {
	case InitFundee:
		return WaitForOpenChannel{
			Base:               s.Base,
			TemporaryChannelID: ev.TemporaryChannelID,
			LocalParams:        ev.LocalParams,
			RemoteInit:         ev.RemoteInit,
		}, nil

	case InitFunder:
		version := lnwallet.DeriveChannelVersion(
			ev.LocalParams.Features, ev.RemoteInit.Features.FeatureSet(),
		)
		localParams, bp, err := withLocalBasepoints(km, ev.LocalParams, version)
		if err != nil {
			return s, []Action{HandleError{Err: err}}
		}

		open := &lnwire.OpenChannel{
			ChainHash:            s.StaticParams.ChainHash,
			PendingChannelID:     ev.TemporaryChannelID,
			FundingAmount:        ev.FundingAmount,
			PushAmount:           ev.PushAmount,
			DustLimit:            localParams.DustLimit,
			MaxValueInFlight:     localParams.MaxPendingAmount,
			ChannelReserve:       localParams.ChanReserve,
			HtlcMinimum:          localParams.MinHTLC,
			FeePerKw:             ev.FeeratePerKw,
			CsvDelay:             localParams.ToSelfDelay,
			MaxAcceptedHTLCs:     localParams.MaxAcceptedHtlcs,
			FundingKey:           bp.funding,
			RevocationPoint:      bp.revocation,
			PaymentPoint:         bp.payment,
			DelayedPaymentPoint:  bp.delayedPayment,
			HtlcPoint:            bp.htlc,
			FirstCommitmentPoint: bp.firstCommitment,
		}

		next := WaitForAcceptChannel{
			Base:               s.Base,
			TemporaryChannelID: ev.TemporaryChannelID,
			FundingAmount:      ev.FundingAmount,
			PushAmount:         ev.PushAmount,
			FeeratePerKw:       ev.FeeratePerKw,
			LocalParams:        localParams,
			RemoteInit:         ev.RemoteInit,
			LastSent:           open,
		}
		return next, []Action{SendMessage{Msg: open}}

	default:
		return spurious(s, event)
	}
}

// withLocalBasepoints returns a copy of lp with ChannelKeyPath populated via
// the key manager, if it isn't already, and with this side's own basepoints
// derived and cached onto it so later commitment construction doesn't need
// a KeyManager in hand. It also returns the derived basepoints, for building
// the outgoing OpenChannel/AcceptChannel message.
func withLocalBasepoints(km lnwallet.KeyManager, lp *lnwallet.LocalParams,
	version lnwallet.ChannelVersion) (*lnwallet.LocalParams, basepoints, error) {

	cp := *lp
	if len(cp.ChannelKeyPath) == 0 {
		cp.ChannelKeyPath = km.ChannelKeyPath(lp, version)
	}

	bp, err := deriveBasepoints(km, cp.ChannelKeyPath)
	if err != nil {
		return &cp, bp, err
	}

	cp.RevocationBasepoint = bp.revocation
	cp.PaymentBasepoint = bp.payment
	cp.DelayedPaymentBasepoint = bp.delayedPayment
	cp.HtlcBasepoint = bp.htlc

	return &cp, bp, nil
}

// --- WaitForOpenChannel (fundee) ---

func processWaitForOpenChannel(km lnwallet.KeyManager, s WaitForOpenChannel, event Event) (State, []Action) {
	mr, ok := event.(MessageReceived)
	if !ok {
		return spurious(s, event)
	}
	open, ok := mr.Msg.(*lnwire.OpenChannel)
	if !ok {
		return spurious(s, event)
	}

	remoteConstraints := lnwallet.ChannelConstraints{
		DustLimit:        open.DustLimit,
		ChanReserve:      open.ChannelReserve,
		MaxPendingAmount: open.MaxValueInFlight,
		MinHTLC:          open.HtlcMinimum,
		MaxAcceptedHtlcs: open.MaxAcceptedHTLCs,
		CsvDelay:         open.CsvDelay,
	}
	if err := validateConstraints(remoteConstraints, open.CsvDelay); err != nil {
		return s, []Action{HandleError{Err: err}}
	}

	version := lnwallet.DeriveChannelVersion(
		s.LocalParams.Features, s.RemoteInit.Features.FeatureSet(),
	)
	localParams, bp, err := withLocalBasepoints(km, s.LocalParams, version)
	if err != nil {
		return s, []Action{HandleError{Err: err}}
	}

	remoteParams := &lnwallet.RemoteParams{
		ChannelConstraints:      remoteConstraints,
		FundingPubKey:           open.FundingKey,
		RevocationBasepoint:     open.RevocationPoint,
		PaymentBasepoint:        open.PaymentPoint,
		DelayedPaymentBasepoint: open.DelayedPaymentPoint,
		HtlcBasepoint:           open.HtlcPoint,
		ToSelfDelay:             open.CsvDelay,
		Features:                s.RemoteInit.Features.FeatureSet(),
	}

	minDepth := minDepthFor(version, s.Base.StaticParams.MinDepth)

	accept := &lnwire.AcceptChannel{
		PendingChannelID:     open.PendingChannelID,
		DustLimit:            localParams.DustLimit,
		MaxValueInFlight:     localParams.MaxPendingAmount,
		ChannelReserve:       localParams.ChanReserve,
		HtlcMinimum:          localParams.MinHTLC,
		MinAcceptDepth:       minDepth,
		CsvDelay:             localParams.ToSelfDelay,
		MaxAcceptedHTLCs:     localParams.MaxAcceptedHtlcs,
		FundingKey:           bp.funding,
		RevocationPoint:      bp.revocation,
		PaymentPoint:         bp.payment,
		DelayedPaymentPoint:  bp.delayedPayment,
		HtlcPoint:            bp.htlc,
		FirstCommitmentPoint: bp.firstCommitment,
	}

	next := WaitForFundingCreated{
		Base:               s.Base,
		TemporaryChannelID: s.TemporaryChannelID,
		LocalParams:        localParams,
		RemoteParams:       remoteParams,
		FundingAmount:      open.FundingAmount,
		PushAmount:         open.PushAmount,
		FeeratePerKw:       open.FeePerKw,
		RemoteFirstPoint:   open.FirstCommitmentPoint,
		ChannelVersion:     version,
		ChannelFlags:       open.ChannelFlags,
		MinDepth:           minDepth,
		LastSent:           accept,
	}
	return next, []Action{SendMessage{Msg: accept}}
}

// --- WaitForAcceptChannel (funder) ---

func processWaitForAcceptChannel(s WaitForAcceptChannel, event Event) (State, []Action) {
	mr, ok := event.(MessageReceived)
	if !ok {
		return spurious(s, event)
	}
	accept, ok := mr.Msg.(*lnwire.AcceptChannel)
	if !ok {
		return spurious(s, event)
	}

	remoteConstraints := lnwallet.ChannelConstraints{
		DustLimit:        accept.DustLimit,
		ChanReserve:      accept.ChannelReserve,
		MaxPendingAmount: accept.MaxValueInFlight,
		MinHTLC:          accept.HtlcMinimum,
		MaxAcceptedHtlcs: accept.MaxAcceptedHTLCs,
		CsvDelay:         accept.CsvDelay,
	}
	if err := validateConstraints(remoteConstraints, accept.CsvDelay); err != nil {
		return s, []Action{HandleError{Err: err}}
	}

	remoteParams := &lnwallet.RemoteParams{
		ChannelConstraints:      remoteConstraints,
		FundingPubKey:           accept.FundingKey,
		RevocationBasepoint:     accept.RevocationPoint,
		PaymentBasepoint:        accept.PaymentPoint,
		DelayedPaymentBasepoint: accept.DelayedPaymentPoint,
		HtlcBasepoint:           accept.HtlcPoint,
		ToSelfDelay:             accept.CsvDelay,
		Features:                s.RemoteInit.Features.FeatureSet(),
	}

	version := lnwallet.DeriveChannelVersion(
		s.LocalParams.Features, s.RemoteInit.Features.FeatureSet(),
	)

	pkScript, _, err := lnwallet.FundingScript(
		s.LastSent.FundingKey, remoteParams.FundingPubKey, s.FundingAmount,
	)
	if err != nil {
		return s, []Action{HandleError{Err: err}}
	}

	next := WaitForFundingInternal{
		Base:               s.Base,
		TemporaryChannelID: s.TemporaryChannelID,
		LocalParams:        s.LocalParams,
		RemoteParams:       remoteParams,
		FundingAmount:      s.FundingAmount,
		PushAmount:         s.PushAmount,
		FeeratePerKw:       s.FeeratePerKw,
		RemoteFirstPoint:   accept.FirstCommitmentPoint,
		ChannelVersion:     version,
		ChannelFlags:       s.LastSent.ChannelFlags,
		MinDepth:           accept.MinAcceptDepth,
		LastSent:           s.LastSent,
	}
	return next, []Action{MakeFundingTx{
		PkScript:     pkScript,
		Amount:       s.FundingAmount,
		FeeratePerKw: s.FeeratePerKw,
	}}
}

// --- WaitForFundingInternal (funder) ---

func processWaitForFundingInternal(km lnwallet.KeyManager, s WaitForFundingInternal, event Event) (State, []Action) {
	ev, ok := event.(MakeFundingTxResponse)
	if !ok {
		return spurious(s, event)
	}
	result := ev.Result

	witnessScript, pkScript, err := lnwallet.FundingScript(
		s.LastSent.FundingKey, s.RemoteParams.FundingPubKey, s.FundingAmount,
	)
	if err != nil {
		return s, []Action{HandleError{Err: err}}
	}
	if int(result.OutputIndex) >= len(result.Tx.TxOut) ||
		result.Tx.TxOut[result.OutputIndex].Value != int64(s.FundingAmount) ||
		!bytes.Equal(result.Tx.TxOut[result.OutputIndex].PkScript, pkScript) {

		return s, []Action{HandleError{Err: ErrFundingOutputMismatch}}
	}

	outpoint := wire.OutPoint{Hash: result.Tx.TxHash(), Index: result.OutputIndex}
	channelID := lnwire.NewChanIDFromOutPoint(&outpoint)

	localSpec := lnwallet.InitialCommitmentSpec(true, s.FundingAmount, s.PushAmount, s.FeeratePerKw)
	remoteSpec := lnwallet.InitialCommitmentSpec(false, s.FundingAmount, s.PushAmount, s.FeeratePerKw)

	skeleton := &lnwallet.Commitments{
		ChannelVersion: s.ChannelVersion,
		LocalParams:    s.LocalParams,
		RemoteParams:   s.RemoteParams,
		CommitInput:    lnwallet.NewCommitInput(outpoint, s.FundingAmount, witnessScript),
	}

	localFirstPoint, err := km.CommitmentPoint(s.LocalParams.ChannelKeyPath, 0)
	if err != nil {
		return s, []Action{HandleError{Err: err}}
	}

	localCommitTx, err := lnwallet.BuildCommitmentTx(skeleton, localSpec, localFirstPoint, true)
	if err != nil {
		return s, []Action{HandleError{Err: err}}
	}
	remoteCommitTx, err := lnwallet.BuildCommitmentTx(skeleton, remoteSpec, s.RemoteFirstPoint, false)
	if err != nil {
		return s, []Action{HandleError{Err: err}}
	}

	sig, err := skeleton.SignCommitmentTx(remoteCommitTx, km)
	if err != nil {
		return s, []Action{HandleError{Err: err}}
	}
	var sigArr [64]byte
	copy(sigArr[:], sig)

	fundingCreated := &lnwire.FundingCreated{
		PendingChannelID: s.TemporaryChannelID,
		FundingPoint:     outpoint,
		CommitSig:        sigArr,
	}

	next := WaitForFundingSigned{
		Base:             s.Base,
		ChannelID:        channelID,
		LocalParams:      s.LocalParams,
		RemoteParams:     s.RemoteParams,
		ChannelFlags:     s.ChannelFlags,
		ChannelVersion:   s.ChannelVersion,
		FundingTx:        result.Tx,
		FundingOutput:    outpoint,
		Fee:              result.Fee,
		LocalSpec:        localSpec,
		RemoteSpec:       remoteSpec,
		LocalCommitTx:    localCommitTx,
		RemoteCommitTx:   remoteCommitTx,
		RemoteFirstPoint: s.RemoteFirstPoint,
		MinDepth:         s.MinDepth,
		LastSent:         fundingCreated,
	}
	return next, []Action{
		ChannelIDAssigned{TemporaryChannelID: s.TemporaryChannelID, ChannelID: channelID},
		SendMessage{Msg: fundingCreated},
	}
}


// --- WaitForFundingCreated (fundee) ---

func processWaitForFundingCreated(km lnwallet.KeyManager, s WaitForFundingCreated, event Event) (State, []Action) {
	mr, ok := event.(MessageReceived)
	if !ok {
		return spurious(s, event)
	}
	msg, ok := mr.Msg.(*lnwire.FundingCreated)
	if !ok {
		return spurious(s, event)
	}

	outpoint := msg.FundingPoint
	channelID := lnwire.NewChanIDFromOutPoint(&outpoint)

	localFundingPub, err := km.FundingPublicKey(s.LocalParams.ChannelKeyPath)
	if err != nil {
		return s, []Action{HandleError{Err: err}}
	}
	witnessScript, pkScript, err := lnwallet.FundingScript(
		localFundingPub, s.RemoteParams.FundingPubKey, s.FundingAmount,
	)
	if err != nil {
		return s, []Action{HandleError{Err: err}}
	}

	localSpec := lnwallet.InitialCommitmentSpec(false, s.FundingAmount, s.PushAmount, s.FeeratePerKw)
	remoteSpec := lnwallet.InitialCommitmentSpec(true, s.FundingAmount, s.PushAmount, s.FeeratePerKw)

	input := lnwallet.NewCommitInput(outpoint, s.FundingAmount, witnessScript)
	skeleton := &lnwallet.Commitments{
		ChannelVersion: s.ChannelVersion,
		LocalParams:    s.LocalParams,
		RemoteParams:   s.RemoteParams,
		CommitInput:    input,
	}

	localFirstPoint, err := km.CommitmentPoint(s.LocalParams.ChannelKeyPath, 0)
	if err != nil {
		return s, []Action{HandleError{Err: err}}
	}

	localCommitTx, err := lnwallet.BuildCommitmentTx(skeleton, localSpec, localFirstPoint, true)
	if err != nil {
		return s, []Action{HandleError{Err: err}}
	}
	remoteCommitTx, err := lnwallet.BuildCommitmentTx(skeleton, remoteSpec, s.RemoteFirstPoint, false)
	if err != nil {
		return s, []Action{HandleError{Err: err}}
	}

	if !skeleton.VerifyCommitmentSig(localCommitTx, msg.CommitSig[:], localFundingPub) {
		return s, []Action{HandleError{Err: lnwallet.ErrInvalidCommitSig}}
	}

	sig, err := skeleton.SignCommitmentTx(remoteCommitTx, km)
	if err != nil {
		return s, []Action{HandleError{Err: err}}
	}
	var sigArr [64]byte
	copy(sigArr[:], sig)

	fundingSigned := &lnwire.FundingSigned{ChannelID: channelID, CommitSig: sigArr}

	commitments := lnwallet.NewCommitments(
		s.ChannelVersion, s.LocalParams, s.RemoteParams, s.ChannelFlags,
		channelID, input, localSpec, remoteSpec, localCommitTx, remoteCommitTx,
		s.RemoteFirstPoint, nil,
	)

	next := WaitForFundingConfirmed{
		Base:        s.Base,
		Commitments: commitments,
		LastSent:    RightFundingSigned(fundingSigned),
	}
	return next, []Action{
		SendWatchSpent{
			Outpoint:   outpoint,
			PkScript:   pkScript,
			HeightHint: s.Base.CurrentTip.Height,
		},
		SendWatchConfirmed{
			Txid:       outpoint.Hash,
			PkScript:   pkScript,
			NumConfs:   s.MinDepth,
			HeightHint: s.Base.CurrentTip.Height,
		},
		SendMessage{Msg: fundingSigned},
		ChannelIDSwitch{OldChannelID: s.TemporaryChannelID, NewChannelID: channelID},
		StoreState{},
	}
}

// --- WaitForFundingSigned (funder) ---

func processWaitForFundingSigned(km lnwallet.KeyManager, now time.Time, s WaitForFundingSigned, event Event) (State, []Action) {
	mr, ok := event.(MessageReceived)
	if !ok {
		return spurious(s, event)
	}
	msg, ok := mr.Msg.(*lnwire.FundingSigned)
	if !ok {
		return spurious(s, event)
	}

	localFundingPub, err := km.FundingPublicKey(s.LocalParams.ChannelKeyPath)
	if err != nil {
		return s, []Action{HandleError{Err: err}}
	}

	amount := btcutilAmountOf(s.FundingTx, s.FundingOutput.Index)
	witnessScript, pkScript, err := lnwallet.FundingScript(
		localFundingPub, s.RemoteParams.FundingPubKey, amount,
	)
	if err != nil {
		return s, []Action{HandleError{Err: err}}
	}
	input := lnwallet.NewCommitInput(s.FundingOutput, amount, witnessScript)

	skeleton := &lnwallet.Commitments{
		ChannelVersion: s.ChannelVersion,
		LocalParams:    s.LocalParams,
		RemoteParams:   s.RemoteParams,
		CommitInput:    input,
	}
	if !skeleton.VerifyCommitmentSig(s.LocalCommitTx, msg.CommitSig[:], localFundingPub) {
		return s, []Action{HandleError{Err: lnwallet.ErrInvalidCommitSig}}
	}

	commitments := lnwallet.NewCommitments(
		s.ChannelVersion, s.LocalParams, s.RemoteParams, s.ChannelFlags,
		s.ChannelID, input, s.LocalSpec, s.RemoteSpec, s.LocalCommitTx, s.RemoteCommitTx,
		s.RemoteFirstPoint, nil,
	)

	minDepth := s.MinDepth

	next := WaitForFundingConfirmed{
		Base:         s.Base,
		Commitments:  commitments,
		FundingTx:    s.FundingTx,
		WaitingSince: now,
		LastSent:     LeftFundingCreated(s.LastSent),
	}
	return next, []Action{
		SendWatchSpent{
			Outpoint:   s.FundingOutput,
			PkScript:   pkScript,
			HeightHint: s.Base.CurrentTip.Height,
		},
		SendWatchConfirmed{
			Txid:       s.FundingOutput.Hash,
			PkScript:   pkScript,
			NumConfs:   minDepth,
			HeightHint: s.Base.CurrentTip.Height,
		},
		StoreState{},
		PublishTx{Tx: s.FundingTx},
	}
}

func btcutilAmountOf(tx *wire.MsgTx, index uint32) btcutil.Amount {
	return btcutil.Amount(tx.TxOut[index].Value)
}

// --- WaitForFundingConfirmed (both) ---

func processWaitForFundingConfirmed(km lnwallet.KeyManager, s WaitForFundingConfirmed, event Event) (State, []Action) {
	switch ev := event.(type) {
	case MessageReceived:
		locked, ok := ev.Msg.(*lnwire.FundingLocked)
		if !ok {
			return spurious(s, event)
		}
		next := s
		next.DeferredFundingLocked = locked
		return next, nil

	case WatchReceivedConfirmed:
		confirmed := ev.Confirmed
		if !lnwallet.VerifyFundingOutput(s.Commitments.CommitInput, confirmed.Tx) && !ev.IsRegtestChain {
			return s, []Action{HandleError{Err: ErrFundingVerificationFailed}}
		}

		nextPoint, err := km.CommitmentPoint(s.Commitments.LocalParams.ChannelKeyPath, 1)
		if err != nil {
			return s, []Action{HandleError{Err: err}}
		}
		fundingLocked := lnwire.NewFundingLocked(s.Commitments.ChannelID, nextPoint)

		shortChannelID := packShortChannelID(
			confirmed.BlockHeight, confirmed.TxIndex, uint16(s.Commitments.CommitInput.Outpoint.Index),
		)

		locked := WaitForFundingLocked{
			Base:           s.Base,
			Commitments:    s.Commitments,
			ShortChannelID: shortChannelID,
			LastSent:       fundingLocked,
		}
		actions := []Action{
			SendWatchLost{Txid: s.Commitments.CommitInput.Outpoint.Hash},
			SendMessage{Msg: fundingLocked},
			StoreState{},
		}

		if s.DeferredFundingLocked != nil {
			followState, followActions := processWaitForFundingLocked(
				locked, MessageReceived{Msg: s.DeferredFundingLocked},
			)
			return followState, append(actions, followActions...)
		}
		return locked, actions

	default:
		return spurious(s, event)
	}
}

func packShortChannelID(blockHeight, txIndex uint32, outputIndex uint16) uint64 {
	return uint64(blockHeight&0xffffff)<<40 | uint64(txIndex&0xffffff)<<16 | uint64(outputIndex)
}

// --- WaitForFundingLocked (both) ---

func processWaitForFundingLocked(s WaitForFundingLocked, event Event) (State, []Action) {
	mr, ok := event.(MessageReceived)
	if !ok {
		return spurious(s, event)
	}
	msg, ok := mr.Msg.(*lnwire.FundingLocked)
	if !ok {
		return spurious(s, event)
	}

	commitments := *s.Commitments
	(&commitments).SetRemoteNextPoint(msg.NextPerCommitmentPoint)

	pkScript, err := commitments.FundingPkScript()
	if err != nil {
		return s, []Action{HandleError{Err: err}}
	}

	next := Normal{
		Base:           s.Base,
		Commitments:    &commitments,
		ShortChannelID: s.ShortChannelID,
		Buried:         false,
	}
	return next, []Action{
		SendWatchConfirmed{
			Txid:       commitments.CommitInput.Outpoint.Hash,
			PkScript:   pkScript,
			NumConfs:   AnnouncementsMinConf,
			HeightHint: s.Base.CurrentTip.Height,
		},
		StoreState{},
	}
}

// --- Normal ---

func processNormal(km lnwallet.KeyManager, s Normal, event Event) (State, []Action) {
	switch ev := event.(type) {
	case MessageReceived:
		return processNormalMessage(km, s, ev.Msg)

	case ExecuteCommand:
		return processNormalCommand(km, s, ev.Cmd)

	default:
		return spurious(s, event)
	}
}

func processNormalMessage(km lnwallet.KeyManager, s Normal, msg lnwire.Message) (State, []Action) {
	switch m := msg.(type) {
	case *lnwire.UpdateAddHTLC:
		next, err := s.Commitments.ReceiveAdd(m)
		if err != nil {
			return s, []Action{HandleError{Err: err}}
		}
		return withCommitments(s, next), nil

	case *lnwire.UpdateFulfillHTLC:
		next, err := s.Commitments.ReceiveFulfill(m)
		if err != nil {
			return s, []Action{HandleError{Err: err}}
		}
		return withCommitments(s, next), nil

	case *lnwire.UpdateFailHTLC:
		next, err := s.Commitments.ReceiveFail(m)
		if err != nil {
			return s, []Action{HandleError{Err: err}}
		}
		return withCommitments(s, next), nil

	case *lnwire.UpdateFailMalformedHTLC:
		next, err := s.Commitments.ReceiveFailMalformed(m)
		if err != nil {
			return s, []Action{HandleError{Err: err}}
		}
		return withCommitments(s, next), nil

	case *lnwire.CommitSig:
		next, revoke, err := s.Commitments.ReceiveCommit(m, km)
		if err != nil {
			return s, []Action{HandleError{Err: err}}
		}
		newState := withCommitments(s, next)
		actions := []Action{StoreState{}, SendMessage{Msg: revoke}}
		if next.LocalHasChanges() || next.RemoteAckedChangesUnresolved() {
			actions = append(actions, ProcessCommand{Cmd: CmdSign{}})
		}
		return newState, actions

	case *lnwire.RevokeAndAck:
		next, resolutions, err := s.Commitments.ReceiveRevocation(m)
		if err != nil {
			return s, []Action{HandleError{Err: err}}
		}
		newState := withCommitments(s, next)

		actions := []Action{StoreState{}}
		actions = append(actions, relayActions(resolutions)...)
		if next.ReSignAsap() {
			actions = append(actions, ProcessCommand{Cmd: CmdSign{}})
		}
		return newState, actions

	default:
		log.Warnf("unhandled message %T in Normal", msg)
		return s, nil
	}
}

func relayActions(resolutions []lnwallet.HtlcResolution) []Action {
	var actions []Action
	for _, res := range resolutions {
		switch {
		case res.IsAdd():
			actions = append(actions, ProcessAdd{HTLCID: res.HTLCID()})
		case res.IsFulfill():
			actions = append(actions, ProcessFulfill{
				HTLCID:   res.HTLCID(),
				Preimage: res.Preimage(),
			})
		case res.IsFail(), res.IsFailMalformed():
			actions = append(actions, ProcessFail{
				HTLCID: res.HTLCID(),
				Reason: res.FailReason(),
			})
		}
	}
	return actions
}

func processNormalCommand(km lnwallet.KeyManager, s Normal, cmd Command) (State, []Action) {
	switch c := cmd.(type) {
	case CmdAddHTLC:
		next, msg, err := s.Commitments.SendAdd(c.AddHTLCCommand)
		if err != nil {
			return s, []Action{HandleError{Err: err}}
		}
		newState := withCommitments(s, next)
		actions := []Action{SendMessage{Msg: msg}}
		if c.Commit {
			actions = append(actions, ProcessCommand{Cmd: CmdSign{}})
		}
		return newState, actions

	case CmdFulfillHTLC:
		next, msg, err := s.Commitments.SendFulfill(c.ID, c.PaymentPreimage)
		if err != nil {
			return s, []Action{HandleError{Err: err}}
		}
		newState := withCommitments(s, next)
		actions := []Action{SendMessage{Msg: msg}}
		if c.Commit {
			actions = append(actions, ProcessCommand{Cmd: CmdSign{}})
		}
		return newState, actions

	case CmdFailHTLC:
		next, msg, err := s.Commitments.SendFail(c.ID, c.Reason)
		if err != nil {
			return s, []Action{HandleError{Err: err}}
		}
		newState := withCommitments(s, next)
		actions := []Action{SendMessage{Msg: msg}}
		if c.Commit {
			actions = append(actions, ProcessCommand{Cmd: CmdSign{}})
		}
		return newState, actions

	case CmdFailMalformedHTLC:
		next, msg, err := s.Commitments.SendFailMalformed(c.ID, c.FailCode, c.ShaOnionBlob)
		if err != nil {
			return s, []Action{HandleError{Err: err}}
		}
		newState := withCommitments(s, next)
		actions := []Action{SendMessage{Msg: msg}}
		if c.Commit {
			actions = append(actions, ProcessCommand{Cmd: CmdSign{}})
		}
		return newState, actions

	case CmdSign:
		if s.Commitments.IsAwaitingRevocation() {
			return withCommitments(s, s.Commitments.MarkReSignAsap()), nil
		}
		if !s.Commitments.LocalHasChanges() && !s.Commitments.RemoteAckedChangesUnresolved() {
			return s, nil
		}

		next, msg, err := s.Commitments.SendCommit(km)
		if err != nil {
			return s, []Action{HandleError{Err: err}}
		}
		htlcs := next.PendingRemoteCommit().Spec.NonDustHtlcs(false, next.RemoteParams.DustLimit)

		newState := withCommitments(s, next)
		return newState, []Action{
			StoreHtlcInfos{Htlcs: htlcs},
			StoreState{},
			SendMessage{Msg: msg},
		}

	default:
		log.Warnf("unhandled command %T in Normal", cmd)
		return s, nil
	}
}

func withCommitments(s Normal, c *lnwallet.Commitments) Normal {
	s.Commitments = c
	return s
}
