package invoice

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInconsistentTotals agrupa discrepancias entre cabecera, ítems y subtotales.
var ErrInconsistentTotals = errors.New("totales del comprobante inconsistentes")

// Validate comprueba que el total de cabecera sea la suma exacta de los importes de
// los ítems y que la base de cada subtotal de IVA coincida con sus ítems.
func Validate(inv *Invoice) error {
	if inv == nil {
		return fmt.Errorf("%w: comprobante nulo", ErrInconsistentTotals)
	}
	var errs []error
	if len(inv.items) == 0 {
		errs = append(errs, errors.New("el comprobante debe tener al menos un ítem"))
	}

	sumAmount := decimal.Zero
	bases := make(map[int]decimal.Decimal)
	for _, it := range inv.items {
		sumAmount = sumAmount.Add(it.Amount)
		if inv.rate.Taxed() {
			bases[it.IVAID] = bases[it.IVAID].Add(it.Subtotal)
		}
	}
	if !inv.header.ImpTotal.Equal(sumAmount) {
		errs = append(errs, fmt.Errorf("total (%s) no coincide con la suma de ítems (%s)",
			inv.header.ImpTotal.String(), sumAmount.String()))
	}
	for _, st := range inv.subtotals {
		if !st.BaseImp.Equal(bases[st.IVAID]) {
			errs = append(errs, fmt.Errorf("base imponible IVA %d (%s) no coincide con sus ítems (%s)",
				st.IVAID, st.BaseImp.String(), bases[st.IVAID].String()))
		}
	}
	if len(inv.subtotals) != len(bases) {
		errs = append(errs, fmt.Errorf("hay %d subtotales de IVA para %d alícuotas", len(inv.subtotals), len(bases)))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInconsistentTotals}, errs...)...)
	}
	return nil
}
