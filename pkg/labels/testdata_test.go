package labels

import (
	"fmt"

	"github.com/dlclark/regexp2"
)

// dpdLabel is the text of one DPD label as produced by PDF text extraction.
const dpdLabel = "1661 Inc\n" +
	"  Columbusstraat 25\n" +
	"  3165AC Rotterdam-Albrandswaard\n" +
	"  NL - NETHERLANDS\n" +
	"  \n" +
	"  Contact\n" +
	"  \n" +
	"  Phone\n" +
	"  Info\n" +
	"  \n" +
	"  Consignment 05212057104424\n\nRef1: Order 338109311DPDwww.dpd.nlSender account 348274Fabian Lukas BlankHauffstr. 37DE - 71093 Weil Im Sch√∂nbuch\nPackages\n1 of 1\n" +
	"  \n" +
	"  Weight\n" +
	"  13.05 Kg\n" +
	"  \n" +
	"  05212057 1044 24 A 2C RETURN\n" +
	"  \n" +
	"  Service\n" +
	"  NL-DPD-0521\n" +
	"  0521 B12\n" +
	"  332-NL-3165AC\n" +
	"  \n" +
	"  12/08/22 01:29-22070402-348274-shipper 2.3\n" +
	"  \n" +
	"  0316 5AC0 5212 0571 0442 4332 528A\n" +
	"   1\n\n338109311\n\nDunk Low 'UCLA'\n9 US M | DD1391 402 | New\n" +
	"  \n" +
	"  Ship by Mon 08/15\n" +
	"  \n" +
	"  DPD NL 05212057104424\n" +
	"  \n" +
	"  PLEASE INCLUDE WITH YOUR ITEM WHEN SHIPPING\n" +
	"  \n" +
	"  MCTSCHECKER\n" +
	"   1"

// buildLabel renders a label with the given fields in the same layout as dpdLabel.
func buildLabel(tracking, order, name, sizeLine string) string {
	return fmt.Sprintf("Sender 1661 Inc\n  Columbusstraat 25\n  3165AC Rotterdam\n"+
		"  Consignment %s\n\nRef1: Order %sDPDwww.dpd.nl\nPackages\n1 of 1\n"+
		"  Weight\n  2.10 Kg\n  Service\n  NL-DPD-0521\n"+
		"   1\n\n%s\n\n%s\n%s\n  Ship by Mon 08/15\n  MCTSCHECKER\n",
		tracking, order, order, name, sizeLine)
}

type failingMatcher struct {
	err error
}

func (f failingMatcher) FindStringMatch(string) (*regexp2.Match, error) {
	return nil, f.err
}

type noMatch struct{}

func (noMatch) FindStringMatch(string) (*regexp2.Match, error) {
	return nil, nil
}
