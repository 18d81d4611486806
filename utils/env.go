package utils

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"os"
)

// LoadEnv loads a dotenv file into the process environment. A missing file
// is not an error.
func LoadEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		logrus.Errorf("LoadEnv: failed to load %s err = %v", path, err)
		return err
	}
	return nil
}
