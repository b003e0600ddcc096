// Command hashpw prints a bcrypt hash for ADMIN_PASSWORD_HASH.
//
//	hashpw 'my admin password'
//	echo -n 'my admin password' | hashpw
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/nnsurvey/internal/utils"
)

func main() {
	var pw string
	if len(os.Args) > 1 {
		pw = os.Args[1]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			logrus.Fatalf("read password: %v", err)
		}
		pw = strings.TrimRight(line, "\r\n")
	}
	if pw == "" {
		logrus.Fatal("password is empty")
	}

	hash, err := utils.HashPassword(pw)
	if err != nil {
		logrus.Fatalf("hash password: %v", err)
	}
	fmt.Println(hash)
}
