package cart

import "errors"

var ErrLineNotFound = errors.New("product is not in the cart")
