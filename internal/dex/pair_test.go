package dex

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stellar/go-stellar-sdk/xdr"

	"pairScope/internal/model"
)

func TestDecodePairInstances(t *testing.T) {
	pairA := contractID(t, 0xa1)
	pairB := contractID(t, 0xb1)
	token0 := contractID(t, 0x10)
	token1 := contractID(t, 0x20)

	complete := mustEncode(t, instanceVal(
		xdr.ScMapEntry{Key: u32Val(0), Val: addressVal(t, token0)},
		xdr.ScMapEntry{Key: u32Val(1), Val: addressVal(t, token1)},
		xdr.ScMapEntry{Key: u32Val(2), Val: i128Val(0, 1000)},
		xdr.ScMapEntry{Key: u32Val(3), Val: i128Val(0, 2500)},
	))
	incomplete := mustEncode(t, instanceVal(
		xdr.ScMapEntry{Key: u32Val(0), Val: addressVal(t, token0)},
	))

	sets := []*model.EntrySet{
		{Alias: "pair1", Entries: []model.LedgerEntry{{ContractID: pairA, ValueXdr: complete}}},
		{Alias: "pair2", Entries: []model.LedgerEntry{{ContractID: pairB, ValueXdr: incomplete}}},
		{Alias: "pair3"},
		nil,
	}

	got, err := DecodePairInstances(sets, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []model.PairInstanceEntry{{
		Address:  pairA,
		Token0:   token0,
		Token1:   token1,
		Reserve0: "1000",
		Reserve1: "2500",
	}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("pairs mismatch: %+v != %+v", got, want)
	}
}

func TestDecodePairInstancesMissingValue(t *testing.T) {
	sets := []*model.EntrySet{{Entries: []model.LedgerEntry{{ContractID: "C"}}}}
	if _, err := DecodePairInstances(sets, nil); !errors.Is(err, ErrMalformedEntry) {
		t.Fatalf("expected ErrMalformedEntry, got %v", err)
	}
}

func TestDecodePairAddresses(t *testing.T) {
	first := contractID(t, 0x01)
	second := contractID(t, 0x02)

	sets := []*model.EntrySet{
		{Entries: []model.LedgerEntry{{ValueXdr: mustEncode(t, addressVal(t, first))}}},
		{Entries: []model.LedgerEntry{{ValueXdr: mustEncode(t, addressVal(t, second))}}},
	}
	got, err := DecodePairAddresses(sets)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, []string{first, second}) {
		t.Fatalf("addresses mismatch: %v", got)
	}

	sets = append(sets, &model.EntrySet{})
	if _, err := DecodePairAddresses(sets); !errors.Is(err, ErrMalformedEntry) {
		t.Fatalf("gap must fail with ErrMalformedEntry, got %v", err)
	}
}
