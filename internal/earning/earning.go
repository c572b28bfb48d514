// Package earning owns revenue recognition and the guide balance calculator.
// A guide is credited exactly once per paid payment; the balance is derived
// from the ledger on every read and never stored.
package earning

// GuideShare splits a payment amount into the guide's cut and the platform
// fee. Integer division truncates toward the guide, the remainder is the fee,
// so the two always sum back to the original amount.
func GuideShare(amount int64, sharePercentage int64) (guideAmount, platformFee int64) {
	guideAmount = amount * sharePercentage / 100
	platformFee = amount - guideAmount
	return guideAmount, platformFee
}
