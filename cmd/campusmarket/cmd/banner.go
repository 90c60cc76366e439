package cmd

import (
	"fmt"
)

const banner = `
   _____                                 __  __            _        _
  / ____|                               |  \/  |          | |      | |
 | |     __ _ _ __ ___  _ __  _   _ ___ | \  / | __ _ _ __| | _____| |_
 | |    / _` + "`" + ` | '_ ` + "`" + ` _ \| '_ \| | | / __|| |\/| |/ _` + "`" + ` | '__| |/ / _ \ __|
 | |___| (_| | | | | | | |_) | |_| \__ \| |  | | (_| | |  |   <  __/ |_
  \_____\__,_|_| |_| |_| .__/ \__,_|___/|_|  |_|\__,_|_|  |_|\_\___|\__|
                       | |
                       |_|
`

func printBanner() {
	fmt.Printf("\x1b[34m%s\x1b[0m", banner)
	fmt.Printf("\x1b[32m  University Community Marketplace - Version %s\x1b[0m\n\n", Version)
}
