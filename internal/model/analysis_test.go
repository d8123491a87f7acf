package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fptr(v float64) *float64 { return &v }

func TestParcelPrice_ListFirst(t *testing.T) {
	p := &Parcel{ListPrice: fptr(80000), SalePrice: fptr(90000)}
	price, ok := p.Price()
	assert.True(t, ok)
	assert.Equal(t, 80000.0, price)

	// Sale price fills in when no asking price exists.
	p = &Parcel{SalePrice: fptr(90000)}
	price, ok = p.Price()
	assert.True(t, ok)
	assert.Equal(t, 90000.0, price)

	// Zero prices count as absent.
	p = &Parcel{ListPrice: fptr(0), SalePrice: fptr(0)}
	_, ok = p.Price()
	assert.False(t, ok)

	_, ok = (&Parcel{}).Price()
	assert.False(t, ok)
}
