package domain

// ProductTerms are the defining fields of a product, in identity order.
type ProductTerms struct {
	Merchant     Address
	MetadataHash Hash
	Token        Address
	Amount       Amount
	Period       uint64
	FreeTrial    uint64
	Grace        uint64
}

// ProductHash derives the content address of a product from its terms.
func ProductHash(t ProductTerms) Hash {
	return NewWordEncoder(7).
		Address(t.Merchant).
		Hash(t.MetadataHash).
		Address(t.Token).
		Amount(t.Amount).
		Uint64(t.Period).
		Uint64(t.FreeTrial).
		Uint64(t.Grace).
		Sum()
}

// SubscriptionHash derives the content address of a subscription.
func SubscriptionHash(productHash Hash, subscriber Address, metadataHash Hash) Hash {
	return NewWordEncoder(3).
		Hash(productHash).
		Address(subscriber).
		Hash(metadataHash).
		Sum()
}
