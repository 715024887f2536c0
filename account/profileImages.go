package account

import (
	"errors"
	"io"
	"io/ioutil"

	"stagegate/authority"
	"stagegate/bizerror"
	"stagegate/client/s3"
	"stagegate/idgen"
	"stagegate/persistence"
	"stagegate/session"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

// profile images are capped at 10 MB
const ProfileImageSizeLimit = 10 << 20

var (
	UpdateProfileImageFunc = UpdateProfileImage
	DetailProfileImageFunc = DetailProfileImage
)

// UpdateProfileImage stores the image and points the user record at the new
// key. Users change their own image; admins can change anybody's.
func UpdateProfileImage(uid types.ID, size int64, r io.Reader, sec *session.Session) (string, error) {
	if uid != sec.Identity.ID && !sec.Perms.HasCapability(authority.CapAdmin) {
		return "", bizerror.ErrForbidden
	}
	if size > ProfileImageSizeLimit {
		return "", &bizerror.ErrFileTooLarge{Limit: ProfileImageSizeLimit, Size: size}
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	user := User{}
	if err := db.Where(&User{ID: uid}).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", bizerror.ErrNotFound
		}
		return "", err
	}

	key := "profile-images/" + uid.String() + "/" + idgen.NextID(userIdWorker).String()
	if err := s3.PutObjectFunc(key, r, sec); err != nil {
		return "", err
	}

	if err := db.Model(&User{}).Where("id = ?", uid).Updates(map[string]interface{}{
		"profile_image_key": key,
		"update_time":       types.CurrentTimestamp(),
	}).Error; err != nil {
		return "", err
	}
	return key, nil
}

func DetailProfileImage(uid types.ID, sec *session.Session) ([]byte, error) {
	db := persistence.ActiveDataSourceManager.GormDB()
	user := User{}
	if err := db.Where(&User{ID: uid}).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	if user.ProfileImageKey == "" {
		return nil, bizerror.ErrNotFound
	}

	r, err := s3.GetObjectFunc(user.ProfileImageKey, sec)
	if err != nil {
		if serErr, ok := err.(oss.ServiceError); ok && serErr.Code == "NoSuchKey" {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	defer r.Close()
	return ioutil.ReadAll(r)
}
